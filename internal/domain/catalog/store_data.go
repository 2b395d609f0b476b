package catalog

import (
	"context"
	"sort"

	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func (s *Store) ListSectors(ctx context.Context, companyID string) ([]Sector, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{Collection: docstore.Sectors, TenantID: companyID, OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Sector](docs)
}

func (s *Store) GetSector(ctx context.Context, companyID, id string) (Sector, error) {
	var out Sector
	err := s.get(ctx, docstore.Sectors, companyID, id, &out)
	return out, err
}

func (s *Store) FindSectorByName(ctx context.Context, companyID, name string) (Sector, bool, error) {
	var out Sector
	found, err := s.findByName(ctx, docstore.Sectors, companyID, name, &out)
	return out, found, err
}

func (s *Store) SaveSector(ctx context.Context, sector Sector) (string, error) {
	return s.save(ctx, docstore.Sectors, sector.ID, &sector, sector.Name)
}

func (s *Store) DeleteSector(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Sectors, id)
}

func (s *Store) ListRoles(ctx context.Context, companyID string) ([]Role, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{Collection: docstore.Roles, TenantID: companyID, OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Role](docs)
}

func (s *Store) GetRole(ctx context.Context, companyID, id string) (Role, error) {
	var out Role
	err := s.get(ctx, docstore.Roles, companyID, id, &out)
	return out, err
}

func (s *Store) FindRoleByName(ctx context.Context, companyID, name string) (Role, bool, error) {
	var out Role
	found, err := s.findByName(ctx, docstore.Roles, companyID, name, &out)
	return out, found, err
}

func (s *Store) SaveRole(ctx context.Context, role Role) (string, error) {
	return s.save(ctx, docstore.Roles, role.ID, &role, role.Name)
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Roles, id)
}

// ListCriteria returns the criteria visible to companyID: shared ones plus
// those listing the company. An empty companyID lists everything.
func (s *Store) ListCriteria(ctx context.Context, companyID, level string) ([]Criterion, error) {
	var levelFilter []docstore.Filter
	if level != "" {
		levelFilter = []docstore.Filter{docstore.Eq("level", level)}
	}

	var queries []docstore.Query
	if companyID == "" {
		queries = append(queries, docstore.Query{Collection: docstore.Criteria, Filters: levelFilter})
	} else {
		queries = append(queries,
			docstore.Query{Collection: docstore.Criteria, Filters: append([]docstore.Filter{docstore.Eq("_shared", true)}, levelFilter...)},
			docstore.Query{Collection: docstore.Criteria, Filters: append([]docstore.Filter{docstore.ArrayContains("companyIds", companyID)}, levelFilter...)},
		)
	}

	seen := map[string]bool{}
	var out []Criterion
	for _, q := range queries {
		docs, err := s.docs.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		items, err := docstore.DecodeAll[Criterion](docs)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return textnorm.Key(out[i].Name) < textnorm.Key(out[j].Name)
	})
	return out, nil
}

func (s *Store) GetCriterion(ctx context.Context, id string) (Criterion, error) {
	var out Criterion
	err := s.get(ctx, docstore.Criteria, "", id, &out)
	return out, err
}

// CriterionData returns the stored form of a criterion, derived keys included.
func CriterionData(criterion Criterion) (map[string]any, error) {
	if criterion.CompanyIDs == nil {
		criterion.CompanyIDs = []string{}
	}
	data, err := docstore.Encode(&criterion)
	if err != nil {
		return nil, err
	}
	data["_shared"] = criterion.Shared()
	data["_nameKey"] = textnorm.Key(criterion.Name)
	return data, nil
}

func (s *Store) SaveCriterion(ctx context.Context, criterion Criterion) (string, error) {
	data, err := CriterionData(criterion)
	if err != nil {
		return "", err
	}
	if criterion.ID == "" {
		return s.docs.Create(ctx, docstore.Criteria, data)
	}
	return criterion.ID, s.docs.Set(ctx, docstore.Criteria, criterion.ID, data)
}

func (s *Store) DeleteCriterion(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Criteria, id)
}

func (s *Store) get(ctx context.Context, collection, companyID, id string, out any) error {
	doc, err := docstore.GetInTenant(ctx, s.docs, collection, companyID, id)
	if err != nil {
		return err
	}
	return docstore.Decode(doc, out)
}

func (s *Store) findByName(ctx context.Context, collection, companyID, name string, out any) (bool, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{
		Collection: collection,
		TenantID:   companyID,
		Filters:    []docstore.Filter{docstore.Eq("_nameKey", textnorm.Key(name))},
		Limit:      1,
	})
	if err != nil || len(docs) == 0 {
		return false, err
	}
	return true, docstore.Decode(docs[0], out)
}

// NamedData encodes a sector or role with its name key.
func NamedData(record any, name string) (map[string]any, error) {
	data, err := docstore.Encode(record)
	if err != nil {
		return nil, err
	}
	data["_nameKey"] = textnorm.Key(name)
	return data, nil
}

// save replaces the document at id, or creates one when id is empty.
func (s *Store) save(ctx context.Context, collection, id string, record any, name string) (string, error) {
	data, err := NamedData(record, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		return s.docs.Create(ctx, collection, data)
	}
	return id, s.docs.Set(ctx, collection, id, data)
}
