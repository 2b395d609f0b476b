package catalog

import "errors"

var (
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidLevel     = errors.New("invalid hierarchical level")
	ErrDuplicateName    = errors.New("name already registered")
	ErrCriterionScope   = errors.New("criterion is shared with other companies")
	ErrInvalidExtension = errors.New("invalid extension field")
)
