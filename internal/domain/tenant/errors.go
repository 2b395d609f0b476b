package tenant

import "errors"

var (
	ErrCompanyNameRequired = errors.New("company name is required")
	ErrCompanyExists       = errors.New("company already exists")
)
