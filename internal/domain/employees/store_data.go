package employees

import (
	"context"

	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

const (
	nameKeyField = "_nameKey"
	codeKeyField = "_codeKey"
)

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func (s *Store) ListEmployees(ctx context.Context, companyID string, filter Filter, cursor string, limit int) ([]Employee, docstore.Page, error) {
	q := docstore.Query{
		Collection: docstore.Employees,
		TenantID:   companyID,
		OrderBy:    nameKeyField,
		Cursor:     cursor,
		Limit:      limit,
	}
	if filter.Status != "" {
		q.Filters = append(q.Filters, docstore.Eq("status", filter.Status))
	}
	if filter.Sector != "" {
		q.Filters = append(q.Filters, docstore.Eq("sector", filter.Sector))
	}
	if filter.Role != "" {
		q.Filters = append(q.Filters, docstore.Eq("role", filter.Role))
	}
	page, err := s.docs.FindPage(ctx, q)
	if err != nil {
		return nil, page, err
	}
	items, err := docstore.DecodeAll[Employee](page.Items)
	return items, page, err
}

func (s *Store) AllEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{Collection: docstore.Employees, TenantID: companyID, OrderBy: nameKeyField})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Employee](docs)
}

func (s *Store) GetEmployee(ctx context.Context, companyID, id string) (Employee, error) {
	doc, err := docstore.GetInTenant(ctx, s.docs, docstore.Employees, companyID, id)
	if err != nil {
		return Employee{}, err
	}
	var out Employee
	err = docstore.Decode(doc, &out)
	return out, err
}

func (s *Store) FindByName(ctx context.Context, companyID, name string) (Employee, bool, error) {
	return s.findOne(ctx, companyID, docstore.Eq(nameKeyField, textnorm.Key(name)))
}

func (s *Store) FindByCode(ctx context.Context, companyID, code string) (Employee, bool, error) {
	key := textnorm.Code(code)
	if key == "" {
		return Employee{}, false, nil
	}
	return s.findOne(ctx, companyID, docstore.Eq(codeKeyField, key))
}

func (s *Store) findOne(ctx context.Context, companyID string, filter docstore.Filter) (Employee, bool, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{
		Collection: docstore.Employees,
		TenantID:   companyID,
		Filters:    []docstore.Filter{filter},
		OrderBy:    docstore.FieldCreatedAt,
		Limit:      1,
	})
	if err != nil || len(docs) == 0 {
		return Employee{}, false, err
	}
	var out Employee
	err = docstore.Decode(docs[0], &out)
	return out, err == nil, err
}

// Data returns the stored document form of an employee, derived keys included.
func Data(employee Employee) (map[string]any, error) {
	data, err := docstore.Encode(&employee)
	if err != nil {
		return nil, err
	}
	data[nameKeyField] = textnorm.Key(employee.Name)
	if code := textnorm.Code(employee.Code); code != "" {
		data[codeKeyField] = code
	}
	return data, nil
}

func (s *Store) SaveEmployee(ctx context.Context, employee Employee) (string, error) {
	data, err := Data(employee)
	if err != nil {
		return "", err
	}
	if employee.ID == "" {
		return s.docs.Create(ctx, docstore.Employees, data)
	}
	return employee.ID, s.docs.Set(ctx, docstore.Employees, employee.ID, data)
}

func (s *Store) UpdateFields(ctx context.Context, id string, patch map[string]any) error {
	return s.docs.Update(ctx, docstore.Employees, id, patch)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Employees, id)
}
