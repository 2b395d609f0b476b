package auth

import "context"

type StoreAPI interface {
	GetUser(ctx context.Context, id string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, user User, role string) (string, error)
	UpdateUser(ctx context.Context, id string, patch map[string]any) error
	GetRole(ctx context.Context, userID string) (string, error)
	SetRole(ctx context.Context, userID, role string) error
}
