package tenant

import (
	"context"

	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func (s *Store) ListCompanies(ctx context.Context) ([]Company, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{Collection: docstore.Companies, OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Company](docs)
}

func (s *Store) GetCompany(ctx context.Context, id string) (Company, error) {
	doc, err := s.docs.Get(ctx, docstore.Companies, id)
	if err != nil {
		return Company{}, err
	}
	var out Company
	err = docstore.Decode(doc, &out)
	return out, err
}

func (s *Store) FindCompanyByName(ctx context.Context, name string) (Company, bool, error) {
	docs, err := s.docs.Find(ctx, docstore.Query{
		Collection: docstore.Companies,
		Filters:    []docstore.Filter{docstore.Eq("_nameKey", textnorm.Key(name))},
		Limit:      1,
	})
	if err != nil || len(docs) == 0 {
		return Company{}, false, err
	}
	var out Company
	err = docstore.Decode(docs[0], &out)
	return out, err == nil, err
}

func (s *Store) CreateCompany(ctx context.Context, company Company) (string, error) {
	data, err := companyData(company)
	if err != nil {
		return "", err
	}
	return s.docs.Create(ctx, docstore.Companies, data)
}

func (s *Store) UpdateCompany(ctx context.Context, company Company) error {
	data, err := companyData(company)
	if err != nil {
		return err
	}
	return s.docs.Update(ctx, docstore.Companies, company.ID, data)
}

func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Companies, id)
}

func companyData(company Company) (map[string]any, error) {
	data, err := docstore.Encode(&company)
	if err != nil {
		return nil, err
	}
	data["_nameKey"] = textnorm.Key(company.Name)
	return data, nil
}
