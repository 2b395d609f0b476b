package goals

import "context"

type StoreAPI interface {
	ListGoals(ctx context.Context, companyID string) ([]Goal, error)
	GetGoal(ctx context.Context, companyID, id string) (Goal, error)
	SaveGoal(ctx context.Context, goal Goal) (string, error)
	DeleteGoal(ctx context.Context, id string) error
}
