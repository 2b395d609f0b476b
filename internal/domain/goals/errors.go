package goals

import "errors"

var (
	ErrTargetRequired   = errors.New("target is required")
	ErrInvalidLevel     = errors.New("invalid hierarchical level")
	ErrDuplicateScope   = errors.New("a goal already exists for this scope")
	ErrInvalidExtension = errors.New("invalid extension field")
)
