package employees

import "errors"

var (
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidStatus    = errors.New("invalid employee status")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrDateOrder        = errors.New("termination date is before admission date")
	ErrDuplicateName    = errors.New("an employee with this name already exists")
	ErrDuplicateCode    = errors.New("an employee with this code already exists")
	ErrNoPhoto          = errors.New("employee has no photo")
	ErrInvalidExtension = errors.New("invalid extension field")
)
