package evaluations

import (
	"context"

	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

const nameKeyField = "_nameKey"

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// ListEvaluations pages newest reference month first.
func (s *Store) ListEvaluations(ctx context.Context, companyID string, filter Filter, cursor string, limit int) ([]Evaluation, docstore.Page, error) {
	q := docstore.Query{
		Collection: docstore.Evaluations,
		TenantID:   companyID,
		OrderBy:    "date",
		Desc:       true,
		Cursor:     cursor,
		Limit:      limit,
	}
	if filter.EmployeeID != "" {
		q.Filters = append(q.Filters, docstore.Eq("employeeId", filter.EmployeeID))
	}
	if filter.Sector != "" {
		q.Filters = append(q.Filters, docstore.Eq("sector", filter.Sector))
	}
	if filter.Level != "" {
		q.Filters = append(q.Filters, docstore.Eq("level", filter.Level))
	}
	if filter.Date != "" {
		q.Filters = append(q.Filters, docstore.Eq("date", filter.Date))
	}
	page, err := s.docs.FindPage(ctx, q)
	if err != nil {
		return nil, page, err
	}
	items, err := docstore.DecodeAll[Evaluation](page.Items)
	return items, page, err
}

func (s *Store) AllEvaluations(ctx context.Context, companyID string) ([]Evaluation, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{Collection: docstore.Evaluations, TenantID: companyID, OrderBy: "date"})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Evaluation](docs)
}

func (s *Store) GetEvaluation(ctx context.Context, companyID, id string) (Evaluation, error) {
	doc, err := docstore.GetInTenant(ctx, s.docs, docstore.Evaluations, companyID, id)
	if err != nil {
		return Evaluation{}, err
	}
	var out Evaluation
	err = docstore.Decode(doc, &out)
	return out, err
}

// FindDuplicate matches on (employeeId, date) when the id is known and on
// (normalized name, date) otherwise.
func (s *Store) FindDuplicate(ctx context.Context, companyID, employeeID, employeeName, date string) (Evaluation, bool, error) {
	filters := []docstore.Filter{docstore.Eq("date", date)}
	if employeeID != "" {
		filters = append(filters, docstore.Eq("employeeId", employeeID))
	} else {
		filters = append(filters, docstore.Eq(nameKeyField, textnorm.Key(employeeName)))
	}
	docs, err := s.docs.Find(ctx, docstore.Query{Collection: docstore.Evaluations, TenantID: companyID, Filters: filters, Limit: 1})
	if err != nil || len(docs) == 0 {
		return Evaluation{}, false, err
	}
	var out Evaluation
	err = docstore.Decode(docs[0], &out)
	return out, err == nil, err
}

// Data returns the stored document form of an evaluation, derived keys included.
func Data(evaluation Evaluation) (map[string]any, error) {
	data, err := docstore.Encode(&evaluation)
	if err != nil {
		return nil, err
	}
	data[nameKeyField] = textnorm.Key(evaluation.EmployeeName)
	return data, nil
}

func (s *Store) SaveEvaluation(ctx context.Context, evaluation Evaluation) (string, error) {
	data, err := Data(evaluation)
	if err != nil {
		return "", err
	}
	if evaluation.ID == "" {
		return s.docs.Create(ctx, docstore.Evaluations, data)
	}
	return evaluation.ID, s.docs.Set(ctx, docstore.Evaluations, evaluation.ID, data)
}

func (s *Store) DeleteEvaluation(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Evaluations, id)
}

func (s *Store) Apply(ctx context.Context, mutations []docstore.Mutation) error {
	return s.docs.Batch(ctx, mutations)
}
