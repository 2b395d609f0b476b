package analytics

import "errors"

var (
	ErrInvalidPeriod  = errors.New("invalid period filter")
	ErrInvalidRange   = errors.New("period range start is after its end")
	ErrInvalidLevel   = errors.New("invalid level filter")
	ErrInvalidStatus  = errors.New("invalid status filter")
	ErrUnknownSection = errors.New("unknown dashboard section")
)
