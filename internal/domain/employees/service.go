package employees

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/blob"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

// Invalidator drops cached tenant aggregates after a write.
type Invalidator interface {
	Invalidate(companyID string)
}

type Service struct {
	store     StoreAPI
	blobs     blob.Store
	maxPixels int
	cache     Invalidator
}

func NewService(store StoreAPI, blobs blob.Store, maxPixels int, cache Invalidator) *Service {
	if maxPixels <= 0 {
		maxPixels = DefaultPhotoPixels
	}
	return &Service{store: store, blobs: blobs, maxPixels: maxPixels, cache: cache}
}

func (s *Service) invalidate(companyID string) {
	if s.cache != nil {
		s.cache.Invalidate(companyID)
	}
}

func (s *Service) List(ctx context.Context, sess tenant.Session, filter Filter, cursor string, limit int) ([]Employee, docstore.Page, error) {
	if err := sess.Require(); err != nil {
		return nil, docstore.Page{}, err
	}
	if filter.Status != "" {
		status, ok := ParseStatus(filter.Status)
		if !ok {
			return nil, docstore.Page{}, ErrInvalidStatus
		}
		filter.Status = status
	}
	return s.store.ListEmployees(ctx, sess.CompanyID, filter, cursor, limit)
}

func (s *Service) All(ctx context.Context, companyID string) ([]Employee, error) {
	return s.store.AllEmployees(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, sess tenant.Session, id string) (Employee, error) {
	if err := sess.Require(); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, sess.CompanyID, id)
}

// Lookup resolves an employee by id first and by normalized name second.
func (s *Service) Lookup(ctx context.Context, companyID, id, name string) (Employee, bool, error) {
	if id != "" {
		employee, err := s.store.GetEmployee(ctx, companyID, id)
		if err == nil {
			return employee, true, nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return Employee{}, false, err
		}
	}
	if textnorm.Key(name) == "" {
		return Employee{}, false, nil
	}
	return s.store.FindByName(ctx, companyID, name)
}

func parseDate(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", ErrInvalidDate
	}
	return parsed.Format(dateLayout), nil
}

func build(sess tenant.Session, input EmployeeInput) (Employee, error) {
	employee := Employee{
		CompanyID: sess.CompanyID,
		Name:      textnorm.Clean(input.Name),
		Code:      textnorm.Clean(input.Code),
		Sector:    textnorm.Clean(input.Sector),
		Role:      textnorm.Clean(input.Role),
		Profile:   textnorm.Clean(input.Profile),
		Status:    StatusActive,
		Extra:     input.Extra,
	}
	if employee.Name == "" {
		return Employee{}, ErrNameRequired
	}
	if input.Status != "" {
		status, ok := ParseStatus(input.Status)
		if !ok {
			return Employee{}, ErrInvalidStatus
		}
		employee.Status = status
	}
	if input.Level != "" {
		level, ok := catalog.ParseLevel(input.Level)
		if !ok {
			return Employee{}, catalog.ErrInvalidLevel
		}
		employee.Level = level
	}
	var err error
	if employee.AdmissionDate, err = parseDate(input.AdmissionDate); err != nil {
		return Employee{}, err
	}
	if employee.TerminationDate, err = parseDate(input.TerminationDate); err != nil {
		return Employee{}, err
	}
	if employee.AdmissionDate != "" && employee.TerminationDate != "" && employee.TerminationDate < employee.AdmissionDate {
		return Employee{}, ErrDateOrder
	}
	if err := docstore.ValidateExtensions(&employee, input.Extra); err != nil {
		return Employee{}, fmt.Errorf("%w: %v", ErrInvalidExtension, err)
	}
	return employee, nil
}

func (s *Service) checkUnique(ctx context.Context, employee Employee) error {
	if existing, found, err := s.store.FindByName(ctx, employee.CompanyID, employee.Name); err != nil {
		return err
	} else if found && existing.ID != employee.ID {
		return ErrDuplicateName
	}
	if employee.Code == "" {
		return nil
	}
	if existing, found, err := s.store.FindByCode(ctx, employee.CompanyID, employee.Code); err != nil {
		return err
	} else if found && existing.ID != employee.ID {
		return ErrDuplicateCode
	}
	return nil
}

// Prepare validates input and checks name and code uniqueness without
// writing.
func (s *Service) Prepare(ctx context.Context, sess tenant.Session, input EmployeeInput) (Employee, error) {
	if err := sess.Require(); err != nil {
		return Employee{}, err
	}
	employee, err := build(sess, input)
	if err != nil {
		return Employee{}, err
	}
	if err := s.checkUnique(ctx, employee); err != nil {
		return Employee{}, err
	}
	return employee, nil
}

func (s *Service) Create(ctx context.Context, sess tenant.Session, input EmployeeInput) (Employee, error) {
	employee, err := s.Prepare(ctx, sess, input)
	if err != nil {
		return Employee{}, err
	}
	id, err := s.store.SaveEmployee(ctx, employee)
	if err != nil {
		return Employee{}, err
	}
	employee.ID = id
	s.invalidate(sess.CompanyID)
	return employee, nil
}

func (s *Service) Update(ctx context.Context, sess tenant.Session, id string, input EmployeeInput) (Employee, Employee, error) {
	if err := sess.Require(); err != nil {
		return Employee{}, Employee{}, err
	}
	before, err := s.store.GetEmployee(ctx, sess.CompanyID, id)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	after, err := build(sess, input)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	after.ID = before.ID
	after.PhotoKey = before.PhotoKey
	if input.Extra == nil {
		after.Extra = before.Extra
	}
	if err := s.checkUnique(ctx, after); err != nil {
		return Employee{}, Employee{}, err
	}
	if _, err := s.store.SaveEmployee(ctx, after); err != nil {
		return Employee{}, Employee{}, err
	}
	s.invalidate(sess.CompanyID)
	return before, after, nil
}

// Delete removes the employee and its photo. Evaluations keep their snapshot.
func (s *Service) Delete(ctx context.Context, sess tenant.Session, id string) (Employee, error) {
	if err := sess.Require(); err != nil {
		return Employee{}, err
	}
	before, err := s.store.GetEmployee(ctx, sess.CompanyID, id)
	if err != nil {
		return Employee{}, err
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return Employee{}, err
	}
	if before.PhotoKey != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, before.PhotoKey); err != nil {
			slog.Warn("employee photo delete failed", "employeeId", id, "err", err)
		}
	}
	s.invalidate(sess.CompanyID)
	return before, nil
}

// UploadPhoto downscales the image, re-encodes it as JPEG and stores it at
// the employee's deterministic photo key.
func (s *Service) UploadPhoto(ctx context.Context, sess tenant.Session, id string, r io.Reader) (Employee, error) {
	if err := sess.Require(); err != nil {
		return Employee{}, err
	}
	employee, err := s.store.GetEmployee(ctx, sess.CompanyID, id)
	if err != nil {
		return Employee{}, err
	}
	encoded, err := blob.ProcessPhoto(r, s.maxPixels)
	if err != nil {
		return Employee{}, err
	}
	key := blob.PhotoKey(sess.CompanyID, id)
	if err := s.blobs.Put(ctx, key, bytes.NewReader(encoded), "image/jpeg"); err != nil {
		return Employee{}, fmt.Errorf("store photo: %w", err)
	}
	if err := s.store.UpdateFields(ctx, id, map[string]any{"photoKey": key}); err != nil {
		return Employee{}, err
	}
	employee.PhotoKey = key
	return employee, nil
}

func (s *Service) Photo(ctx context.Context, sess tenant.Session, id string) (io.ReadCloser, error) {
	employee, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if employee.PhotoKey == "" {
		return nil, ErrNoPhoto
	}
	return s.blobs.Get(ctx, employee.PhotoKey)
}

func (s *Service) DeletePhoto(ctx context.Context, sess tenant.Session, id string) (Employee, error) {
	employee, err := s.Get(ctx, sess, id)
	if err != nil {
		return Employee{}, err
	}
	if employee.PhotoKey == "" {
		return employee, nil
	}
	if err := s.blobs.Delete(ctx, employee.PhotoKey); err != nil {
		return Employee{}, err
	}
	if err := s.store.UpdateFields(ctx, id, map[string]any{"photoKey": ""}); err != nil {
		return Employee{}, err
	}
	employee.PhotoKey = ""
	return employee, nil
}
