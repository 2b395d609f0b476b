package catalog

import "context"

type StoreAPI interface {
	ListSectors(ctx context.Context, companyID string) ([]Sector, error)
	GetSector(ctx context.Context, companyID, id string) (Sector, error)
	FindSectorByName(ctx context.Context, companyID, name string) (Sector, bool, error)
	SaveSector(ctx context.Context, sector Sector) (string, error)
	DeleteSector(ctx context.Context, id string) error

	ListRoles(ctx context.Context, companyID string) ([]Role, error)
	GetRole(ctx context.Context, companyID, id string) (Role, error)
	FindRoleByName(ctx context.Context, companyID, name string) (Role, bool, error)
	SaveRole(ctx context.Context, role Role) (string, error)
	DeleteRole(ctx context.Context, id string) error

	ListCriteria(ctx context.Context, companyID, level string) ([]Criterion, error)
	GetCriterion(ctx context.Context, id string) (Criterion, error)
	SaveCriterion(ctx context.Context, criterion Criterion) (string, error)
	DeleteCriterion(ctx context.Context, id string) error
}
