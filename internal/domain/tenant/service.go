package tenant

import (
	"context"
	"fmt"
	"slices"

	"perfeval/internal/platform/textnorm"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// ListCompanies returns every company when ids is nil, otherwise only the
// companies whose id is listed.
func (s *Service) ListCompanies(ctx context.Context, ids []string) ([]Company, error) {
	all, err := s.store.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		return all, nil
	}
	out := make([]Company, 0, len(ids))
	for _, c := range all {
		if slices.Contains(ids, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) GetCompany(ctx context.Context, id string) (Company, error) {
	return s.store.GetCompany(ctx, id)
}

func (s *Service) CreateCompany(ctx context.Context, input CompanyInput) (Company, error) {
	name := textnorm.Clean(input.Name)
	if name == "" {
		return Company{}, ErrCompanyNameRequired
	}
	if _, found, err := s.store.FindCompanyByName(ctx, name); err != nil {
		return Company{}, err
	} else if found {
		return Company{}, ErrCompanyExists
	}
	company := Company{Name: name, TaxID: textnorm.Clean(input.TaxID), Active: true, Extra: input.Extra}
	if input.Active != nil {
		company.Active = *input.Active
	}
	id, err := s.store.CreateCompany(ctx, company)
	if err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	return s.store.GetCompany(ctx, id)
}

// EnsureCompany returns the company with the given name, creating it when absent.
func (s *Service) EnsureCompany(ctx context.Context, name string) (Company, error) {
	existing, found, err := s.store.FindCompanyByName(ctx, name)
	if err != nil {
		return Company{}, err
	}
	if found {
		return existing, nil
	}
	return s.CreateCompany(ctx, CompanyInput{Name: name})
}

func (s *Service) UpdateCompany(ctx context.Context, id string, input CompanyInput) (Company, Company, error) {
	before, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return Company{}, Company{}, err
	}
	name := textnorm.Clean(input.Name)
	if name == "" {
		return Company{}, Company{}, ErrCompanyNameRequired
	}
	if other, found, err := s.store.FindCompanyByName(ctx, name); err != nil {
		return Company{}, Company{}, err
	} else if found && other.ID != id {
		return Company{}, Company{}, ErrCompanyExists
	}
	after := before
	after.Name = name
	after.TaxID = textnorm.Clean(input.TaxID)
	if input.Active != nil {
		after.Active = *input.Active
	}
	if input.Extra != nil {
		after.Extra = input.Extra
	}
	if err := s.store.UpdateCompany(ctx, after); err != nil {
		return Company{}, Company{}, err
	}
	updated, err := s.store.GetCompany(ctx, id)
	return before, updated, err
}

func (s *Service) DeleteCompany(ctx context.Context, id string) (Company, error) {
	before, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}
	return before, s.store.DeleteCompany(ctx, id)
}
