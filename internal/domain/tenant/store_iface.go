package tenant

import "context"

type StoreAPI interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	FindCompanyByName(ctx context.Context, name string) (Company, bool, error)
	CreateCompany(ctx context.Context, company Company) (string, error)
	UpdateCompany(ctx context.Context, company Company) error
	DeleteCompany(ctx context.Context, id string) error
}
