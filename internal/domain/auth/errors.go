package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrInvalidMFACode     = errors.New("invalid mfa code")
	ErrMFANotConfigured   = errors.New("mfa not set up")
	ErrCompanyNotAllowed  = errors.New("company not allowed for user")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidStatus      = errors.New("invalid user status")
)
