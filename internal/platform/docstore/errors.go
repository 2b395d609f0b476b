package docstore

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodePermissionDenied   Code = "permission-denied"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeNotFound           Code = "not-found"
	CodeAlreadyExists      Code = "already-exists"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeResourceExhausted  Code = "resource-exhausted"
	CodeUnknown            Code = "unknown"
)

var (
	errEmptyCollection = errors.New("collection is required")
	errInvalidField    = errors.New("invalid field name")
	errInvalidFilter   = errors.New("invalid filter value")
	errInvalidCursor   = errors.New("invalid cursor")
	errMissing         = errors.New("document not found")
	errExists          = errors.New("document already exists")
)

// Error is the single failure type drivers return. Callers branch on Code.
type Error struct {
	Code       Code
	Op         string
	Collection string
	Err        error
}

func newError(code Code, op, collection string, err error) *Error {
	return &Error{Code: code, Op: op, Collection: collection, Err: err}
}

func (e *Error) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("docstore %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("docstore %s %s: %s: %v", e.Op, e.Collection, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists}
	ErrPermissionDenied   = &Error{Code: CodePermissionDenied}
	ErrFailedPrecondition = &Error{Code: CodeFailedPrecondition}
)

// CodeOf extracts the taxonomy code of err, or CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// NotFound builds a not-found error for callers that detect absence themselves.
func NotFound(op, collection string) error {
	return newError(CodeNotFound, op, collection, errMissing)
}
