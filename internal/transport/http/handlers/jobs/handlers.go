package jobhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/platform/jobs"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Handler struct {
	Service   *jobs.Service
	Perms     middleware.PermissionStore
	Retention func(ctx context.Context, tenantID string) (any, error)
}

// NewHandler wires the job endpoints. retention may be nil when the audit
// retention job is disabled.
func NewHandler(service *jobs.Service, perms middleware.PermissionStore, retention func(ctx context.Context, tenantID string) (any, error)) *Handler {
	return &Handler{Service: service, Perms: perms, Retention: retention}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		r.With(middleware.RequirePermission(auth.PermJobsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermJobsRead, h.Perms)).Get("/{id}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Post("/retention/run", h.handleRunRetention)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, result, err := h.Service.List(r.Context(), middleware.Session(r).CompanyID, page.Cursor, page.Limit)
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	api.List(w, runs, api.Meta{NextCursor: result.NextCursor, HasMore: result.HasMore}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.Get(r.Context(), middleware.Session(r).CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

// handleRunRetention purges the caller's expired audit entries right away
// and records the run like a scheduled one.
func (h *Handler) handleRunRetention(w http.ResponseWriter, r *http.Request) {
	if h.Retention == nil {
		api.FailCode(w, r, http.StatusPreconditionFailed, "failed_precondition")
		return
	}
	companyID := middleware.Session(r).CompanyID
	details, err := h.Service.RunNow(r.Context(), jobs.JobAuditRetention, companyID, func(ctx context.Context) (any, error) {
		return h.Retention(ctx, companyID)
	})
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}
