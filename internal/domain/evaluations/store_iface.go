package evaluations

import (
	"context"

	"perfeval/internal/platform/docstore"
)

type StoreAPI interface {
	ListEvaluations(ctx context.Context, companyID string, filter Filter, cursor string, limit int) ([]Evaluation, docstore.Page, error)
	AllEvaluations(ctx context.Context, companyID string) ([]Evaluation, error)
	GetEvaluation(ctx context.Context, companyID, id string) (Evaluation, error)
	FindDuplicate(ctx context.Context, companyID, employeeID, employeeName, date string) (Evaluation, bool, error)
	SaveEvaluation(ctx context.Context, evaluation Evaluation) (string, error)
	DeleteEvaluation(ctx context.Context, id string) error
	Apply(ctx context.Context, mutations []docstore.Mutation) error
}
