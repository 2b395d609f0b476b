package api

import (
	"errors"
	"log/slog"
	"net/http"

	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/requestctx"
)

// Status is the response chosen for a domain error.
type Status struct {
	HTTP int
	Code string
}

// ErrorMap binds domain sentinel errors to responses. Entries are matched
// with errors.Is.
type ErrorMap map[error]Status

var storeStatus = map[docstore.Code]Status{
	docstore.CodePermissionDenied:   {http.StatusForbidden, "forbidden"},
	docstore.CodeUnauthenticated:    {http.StatusUnauthorized, "unauthorized"},
	docstore.CodeNotFound:           {http.StatusNotFound, "not_found"},
	docstore.CodeAlreadyExists:      {http.StatusConflict, "conflict"},
	docstore.CodeFailedPrecondition: {http.StatusPreconditionFailed, "failed_precondition"},
	docstore.CodeResourceExhausted:  {http.StatusServiceUnavailable, "resource_exhausted"},
	docstore.CodeUnknown:            {http.StatusInternalServerError, "internal_error"},
}

// Resolve finds the response for err: the handler's domain map first, then
// the store error code, then a generic 500.
func Resolve(err error, maps ...ErrorMap) Status {
	for _, m := range maps {
		for target, status := range m {
			if errors.Is(err, target) {
				return status
			}
		}
	}
	if errors.Is(err, tenant.ErrNoCompany) {
		return Status{http.StatusBadRequest, "company_required"}
	}
	var storeErr *docstore.Error
	if errors.As(err, &storeErr) {
		if status, ok := storeStatus[storeErr.Code]; ok {
			return status
		}
	}
	return Status{http.StatusInternalServerError, "internal_error"}
}

// FailError is the single translation point from errors to localized
// envelopes. Server-side failures are logged; their detail never reaches
// the client.
func FailError(w http.ResponseWriter, r *http.Request, err error, maps ...ErrorMap) {
	status := Resolve(err, maps...)
	locale := requestctx.GetLocale(r.Context())
	requestID := requestctx.GetRequestID(r.Context())
	if status.HTTP >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "requestId", requestID, "err", err)
		Fail(w, status.HTTP, status.Code, Message(locale, status.Code, "internal error"), requestID)
		return
	}
	slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "requestId", requestID, "code", status.Code, "err", err)
	var storeErr *docstore.Error
	if errors.As(err, &storeErr) {
		Fail(w, status.HTTP, status.Code, Message(locale, status.Code, status.Code), requestID)
		return
	}
	FailWithDetails(w, status.HTTP, status.Code, Message(locale, status.Code, err.Error()), map[string]string{"reason": err.Error()}, requestID)
}

// FailCode writes a localized envelope for a known code.
func FailCode(w http.ResponseWriter, r *http.Request, status int, code string) {
	locale := requestctx.GetLocale(r.Context())
	Fail(w, status, code, Message(locale, code, code), requestctx.GetRequestID(r.Context()))
}
