package catalog

import (
	"context"
	"fmt"
	"slices"

	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

const roleAdmin = "admin"

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func checkExtensions(record any, extra map[string]any) error {
	if err := docstore.ValidateExtensions(record, extra); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExtension, err)
	}
	return nil
}

func (s *Service) ListSectors(ctx context.Context, sess tenant.Session) ([]Sector, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.store.ListSectors(ctx, sess.CompanyID)
}

func (s *Service) GetSector(ctx context.Context, sess tenant.Session, id string) (Sector, error) {
	if err := sess.Require(); err != nil {
		return Sector{}, err
	}
	return s.store.GetSector(ctx, sess.CompanyID, id)
}

// PrepareSector validates a new sector and rejects a taken name. It does
// not write.
func (s *Service) PrepareSector(ctx context.Context, sess tenant.Session, input SectorInput) (Sector, error) {
	if err := sess.Require(); err != nil {
		return Sector{}, err
	}
	sector := Sector{CompanyID: sess.CompanyID, Name: textnorm.Clean(input.Name), Description: input.Description, Extra: input.Extra}
	if sector.Name == "" {
		return Sector{}, ErrNameRequired
	}
	if err := checkExtensions(&sector, input.Extra); err != nil {
		return Sector{}, err
	}
	if _, found, err := s.store.FindSectorByName(ctx, sess.CompanyID, sector.Name); err != nil {
		return Sector{}, err
	} else if found {
		return Sector{}, ErrDuplicateName
	}
	return sector, nil
}

func (s *Service) CreateSector(ctx context.Context, sess tenant.Session, input SectorInput) (Sector, error) {
	sector, err := s.PrepareSector(ctx, sess, input)
	if err != nil {
		return Sector{}, err
	}
	id, err := s.store.SaveSector(ctx, sector)
	if err != nil {
		return Sector{}, err
	}
	sector.ID = id
	return sector, nil
}

func (s *Service) UpdateSector(ctx context.Context, sess tenant.Session, id string, input SectorInput) (Sector, Sector, error) {
	if err := sess.Require(); err != nil {
		return Sector{}, Sector{}, err
	}
	before, err := s.store.GetSector(ctx, sess.CompanyID, id)
	if err != nil {
		return Sector{}, Sector{}, err
	}
	after := before
	after.Name = textnorm.Clean(input.Name)
	after.Description = input.Description
	if input.Extra != nil {
		after.Extra = input.Extra
	}
	if after.Name == "" {
		return Sector{}, Sector{}, ErrNameRequired
	}
	if err := checkExtensions(&after, input.Extra); err != nil {
		return Sector{}, Sector{}, err
	}
	if existing, found, err := s.store.FindSectorByName(ctx, sess.CompanyID, after.Name); err != nil {
		return Sector{}, Sector{}, err
	} else if found && existing.ID != id {
		return Sector{}, Sector{}, ErrDuplicateName
	}
	if _, err := s.store.SaveSector(ctx, after); err != nil {
		return Sector{}, Sector{}, err
	}
	return before, after, nil
}

func (s *Service) DeleteSector(ctx context.Context, sess tenant.Session, id string) (Sector, error) {
	if err := sess.Require(); err != nil {
		return Sector{}, err
	}
	before, err := s.store.GetSector(ctx, sess.CompanyID, id)
	if err != nil {
		return Sector{}, err
	}
	return before, s.store.DeleteSector(ctx, id)
}

func (s *Service) ListRoles(ctx context.Context, sess tenant.Session) ([]Role, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.store.ListRoles(ctx, sess.CompanyID)
}

func (s *Service) GetRole(ctx context.Context, sess tenant.Session, id string) (Role, error) {
	if err := sess.Require(); err != nil {
		return Role{}, err
	}
	return s.store.GetRole(ctx, sess.CompanyID, id)
}

func (s *Service) buildRole(sess tenant.Session, input RoleInput) (Role, error) {
	role := Role{CompanyID: sess.CompanyID, Name: textnorm.Clean(input.Name), Extra: input.Extra}
	if role.Name == "" {
		return Role{}, ErrNameRequired
	}
	if input.Level != "" {
		level, ok := ParseLevel(input.Level)
		if !ok {
			return Role{}, ErrInvalidLevel
		}
		role.Level = level
	}
	return role, checkExtensions(&role, input.Extra)
}

func (s *Service) PrepareRole(ctx context.Context, sess tenant.Session, input RoleInput) (Role, error) {
	if err := sess.Require(); err != nil {
		return Role{}, err
	}
	role, err := s.buildRole(sess, input)
	if err != nil {
		return Role{}, err
	}
	if _, found, err := s.store.FindRoleByName(ctx, sess.CompanyID, role.Name); err != nil {
		return Role{}, err
	} else if found {
		return Role{}, ErrDuplicateName
	}
	return role, nil
}

func (s *Service) CreateRole(ctx context.Context, sess tenant.Session, input RoleInput) (Role, error) {
	role, err := s.PrepareRole(ctx, sess, input)
	if err != nil {
		return Role{}, err
	}
	id, err := s.store.SaveRole(ctx, role)
	if err != nil {
		return Role{}, err
	}
	role.ID = id
	return role, nil
}

func (s *Service) UpdateRole(ctx context.Context, sess tenant.Session, id string, input RoleInput) (Role, Role, error) {
	if err := sess.Require(); err != nil {
		return Role{}, Role{}, err
	}
	before, err := s.store.GetRole(ctx, sess.CompanyID, id)
	if err != nil {
		return Role{}, Role{}, err
	}
	after, err := s.buildRole(sess, input)
	if err != nil {
		return Role{}, Role{}, err
	}
	after.ID = before.ID
	if input.Extra == nil {
		after.Extra = before.Extra
	}
	if existing, found, err := s.store.FindRoleByName(ctx, sess.CompanyID, after.Name); err != nil {
		return Role{}, Role{}, err
	} else if found && existing.ID != id {
		return Role{}, Role{}, ErrDuplicateName
	}
	if _, err := s.store.SaveRole(ctx, after); err != nil {
		return Role{}, Role{}, err
	}
	return before, after, nil
}

func (s *Service) DeleteRole(ctx context.Context, sess tenant.Session, id string) (Role, error) {
	if err := sess.Require(); err != nil {
		return Role{}, err
	}
	before, err := s.store.GetRole(ctx, sess.CompanyID, id)
	if err != nil {
		return Role{}, err
	}
	return before, s.store.DeleteRole(ctx, id)
}

// ListCriteria lists criteria visible to the session's company. An admin
// without a selected company sees every criterion.
func (s *Service) ListCriteria(ctx context.Context, sess tenant.Session, level string) ([]Criterion, error) {
	if sess.CompanyID == "" && sess.Role != roleAdmin {
		return nil, tenant.ErrNoCompany
	}
	if level != "" {
		parsed, ok := ParseLevel(level)
		if !ok {
			return nil, ErrInvalidLevel
		}
		level = parsed
	}
	return s.store.ListCriteria(ctx, sess.CompanyID, level)
}

func (s *Service) GetCriterion(ctx context.Context, sess tenant.Session, id string) (Criterion, error) {
	criterion, err := s.store.GetCriterion(ctx, id)
	if err != nil {
		return Criterion{}, err
	}
	if sess.Role != roleAdmin && !criterion.Shared() && !slices.Contains(criterion.CompanyIDs, sess.CompanyID) {
		return Criterion{}, docstore.ErrNotFound
	}
	return criterion, nil
}

// Non-admins may only manage criteria scoped to their own company.
func (s *Service) scopeCriterion(sess tenant.Session, companyIDs []string) ([]string, error) {
	if sess.Role == roleAdmin {
		return companyIDs, nil
	}
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return []string{sess.CompanyID}, nil
}

func (s *Service) ownsCriterion(sess tenant.Session, criterion Criterion) bool {
	if sess.Role == roleAdmin {
		return true
	}
	return len(criterion.CompanyIDs) == 1 && criterion.CompanyIDs[0] == sess.CompanyID
}

func (s *Service) buildCriterion(sess tenant.Session, input CriterionInput) (Criterion, error) {
	criterion := Criterion{Name: textnorm.Clean(input.Name), Description: input.Description, Extra: input.Extra}
	if criterion.Name == "" {
		return Criterion{}, ErrNameRequired
	}
	level, ok := ParseLevel(input.Level)
	if !ok {
		return Criterion{}, ErrInvalidLevel
	}
	criterion.Level = level
	ids, err := s.scopeCriterion(sess, input.CompanyIDs)
	if err != nil {
		return Criterion{}, err
	}
	criterion.CompanyIDs = ids
	return criterion, checkExtensions(&criterion, input.Extra)
}

func (s *Service) duplicateCriterion(ctx context.Context, sess tenant.Session, criterion Criterion) (bool, error) {
	visible, err := s.store.ListCriteria(ctx, sess.CompanyID, criterion.Level)
	if err != nil {
		return false, err
	}
	for _, item := range visible {
		if item.ID != criterion.ID && textnorm.Equal(item.Name, criterion.Name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) PrepareCriterion(ctx context.Context, sess tenant.Session, input CriterionInput) (Criterion, error) {
	criterion, err := s.buildCriterion(sess, input)
	if err != nil {
		return Criterion{}, err
	}
	if dup, err := s.duplicateCriterion(ctx, sess, criterion); err != nil {
		return Criterion{}, err
	} else if dup {
		return Criterion{}, ErrDuplicateName
	}
	return criterion, nil
}

func (s *Service) CreateCriterion(ctx context.Context, sess tenant.Session, input CriterionInput) (Criterion, error) {
	criterion, err := s.PrepareCriterion(ctx, sess, input)
	if err != nil {
		return Criterion{}, err
	}
	id, err := s.store.SaveCriterion(ctx, criterion)
	if err != nil {
		return Criterion{}, err
	}
	criterion.ID = id
	return criterion, nil
}

func (s *Service) UpdateCriterion(ctx context.Context, sess tenant.Session, id string, input CriterionInput) (Criterion, Criterion, error) {
	before, err := s.GetCriterion(ctx, sess, id)
	if err != nil {
		return Criterion{}, Criterion{}, err
	}
	if !s.ownsCriterion(sess, before) {
		return Criterion{}, Criterion{}, ErrCriterionScope
	}
	after, err := s.buildCriterion(sess, input)
	if err != nil {
		return Criterion{}, Criterion{}, err
	}
	after.ID = before.ID
	if input.Extra == nil {
		after.Extra = before.Extra
	}
	if dup, err := s.duplicateCriterion(ctx, sess, after); err != nil {
		return Criterion{}, Criterion{}, err
	} else if dup {
		return Criterion{}, Criterion{}, ErrDuplicateName
	}
	if _, err := s.store.SaveCriterion(ctx, after); err != nil {
		return Criterion{}, Criterion{}, err
	}
	return before, after, nil
}

func (s *Service) DeleteCriterion(ctx context.Context, sess tenant.Session, id string) (Criterion, error) {
	before, err := s.GetCriterion(ctx, sess, id)
	if err != nil {
		return Criterion{}, err
	}
	if !s.ownsCriterion(sess, before) {
		return Criterion{}, ErrCriterionScope
	}
	return before, s.store.DeleteCriterion(ctx, id)
}

// EnsureCriterion creates a shared criterion unless one with the same name and
// level exists. Used by seeding.
func (s *Service) EnsureCriterion(ctx context.Context, name, level, description string) (Criterion, bool, error) {
	sess := tenant.Session{Role: roleAdmin}
	criterion, err := s.buildCriterion(sess, CriterionInput{Name: name, Level: level, Description: description})
	if err != nil {
		return Criterion{}, false, err
	}
	visible, err := s.store.ListCriteria(ctx, "", criterion.Level)
	if err != nil {
		return Criterion{}, false, err
	}
	for _, item := range visible {
		if item.Shared() && textnorm.Equal(item.Name, criterion.Name) {
			return item, false, nil
		}
	}
	id, err := s.store.SaveCriterion(ctx, criterion)
	if err != nil {
		return Criterion{}, false, err
	}
	criterion.ID = id
	return criterion, true, nil
}
