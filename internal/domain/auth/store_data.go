package auth

import (
	"context"
	"errors"
	"strings"

	"perfeval/internal/platform/docstore"
)

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	doc, err := s.docs.Get(ctx, docstore.Users, id)
	if err != nil {
		return User{}, err
	}
	var out User
	err = docstore.Decode(doc, &out)
	return out, err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (User, bool, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{
		Collection: docstore.Users,
		Filters:    []docstore.Filter{docstore.Eq("email", normalizeEmail(email))},
		Limit:      1,
	})
	if err != nil || len(docs) == 0 {
		return User{}, false, err
	}
	var out User
	err = docstore.Decode(docs[0], &out)
	return out, err == nil, err
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{Collection: docstore.Users, OrderBy: "email"})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[User](docs)
}

// CreateUser writes the user and its role in one batch.
func (s *Store) CreateUser(ctx context.Context, user User, role string) (string, error) {
	user.Email = normalizeEmail(user.Email)
	data, err := docstore.Encode(user)
	if err != nil {
		return "", err
	}
	id := docstore.NewID()
	err = s.docs.Batch(ctx, []docstore.Mutation{
		{Kind: docstore.MutationCreate, Collection: docstore.Users, ID: id, Data: data},
		{Kind: docstore.MutationSet, Collection: docstore.UserRoles, ID: id, Data: map[string]any{"userId": id, "role": role}},
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch map[string]any) error {
	return s.docs.Update(ctx, docstore.Users, id, patch)
}

// GetRole falls back to viewer when the user has no role document.
func (s *Store) GetRole(ctx context.Context, userID string) (string, error) {
	doc, err := s.docs.Get(ctx, docstore.UserRoles, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return RoleViewer, nil
	}
	if err != nil {
		return "", err
	}
	if role := doc.String("role"); role != "" {
		return role, nil
	}
	return RoleViewer, nil
}

func (s *Store) SetRole(ctx context.Context, userID, role string) error {
	return s.docs.Set(ctx, docstore.UserRoles, userID, map[string]any{"userId": userID, "role": role})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
