package employees

import (
	"context"

	"perfeval/internal/platform/docstore"
)

type StoreAPI interface {
	ListEmployees(ctx context.Context, companyID string, filter Filter, cursor string, limit int) ([]Employee, docstore.Page, error)
	AllEmployees(ctx context.Context, companyID string) ([]Employee, error)
	GetEmployee(ctx context.Context, companyID, id string) (Employee, error)
	FindByName(ctx context.Context, companyID, name string) (Employee, bool, error)
	FindByCode(ctx context.Context, companyID, code string) (Employee, bool, error)
	SaveEmployee(ctx context.Context, employee Employee) (string, error)
	UpdateFields(ctx context.Context, id string, patch map[string]any) error
	DeleteEmployee(ctx context.Context, id string) error
}
