// Package tenant owns companies (the isolation boundary) and the per-request
// session that carries the selected company into every domain call.
package tenant

import "errors"

var ErrNoCompany = errors.New("no company selected")

// Session is threaded explicitly through domain services; nothing reads the
// active company from global state.
type Session struct {
	CompanyID string
	UserID    string
	Role      string
	RequestID string
	IP        string
}

// Require returns ErrNoCompany when the caller has not selected a company.
func (s Session) Require() error {
	if s.CompanyID == "" {
		return ErrNoCompany
	}
	return nil
}
