package goals

import (
	"context"

	"perfeval/internal/platform/docstore"
)

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// ListGoals returns goals most recently updated first.
func (s *Store) ListGoals(ctx context.Context, companyID string) ([]Goal, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{
		Collection: docstore.Goals,
		TenantID:   companyID,
		OrderBy:    docstore.FieldUpdatedAt,
		Desc:       true,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Goal](docs)
}

func (s *Store) GetGoal(ctx context.Context, companyID, id string) (Goal, error) {
	doc, err := docstore.GetInTenant(ctx, s.docs, docstore.Goals, companyID, id)
	if err != nil {
		return Goal{}, err
	}
	var out Goal
	err = docstore.Decode(doc, &out)
	return out, err
}

func (s *Store) SaveGoal(ctx context.Context, goal Goal) (string, error) {
	data, err := docstore.Encode(&goal)
	if err != nil {
		return "", err
	}
	if goal.ID == "" {
		return s.docs.Create(ctx, docstore.Goals, data)
	}
	return goal.ID, s.docs.Set(ctx, docstore.Goals, goal.ID, data)
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Goals, id)
}
