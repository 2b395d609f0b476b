package evaluations

import "errors"

var (
	ErrInvalidDate         = errors.New("invalid reference date")
	ErrScoresRequired      = errors.New("at least one score is required")
	ErrEmployeeRequired    = errors.New("employee id or name is required")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrDuplicateEvaluation = errors.New("employee already evaluated for this month")
	ErrInvalidLevel        = errors.New("invalid hierarchical level")
	ErrEmptyBulk           = errors.New("no evaluations selected")
	ErrBulkTooLarge        = errors.New("too many evaluations in one bulk operation")
	ErrInvalidExtension    = errors.New("invalid extension field")
)
