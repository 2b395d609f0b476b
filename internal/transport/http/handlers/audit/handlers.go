package audithandler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		r.Use(middleware.RequirePermission(auth.PermAuditRead, h.Perms))
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

func filterFromRequest(r *http.Request) audit.Filter {
	query := r.URL.Query()
	return audit.Filter{
		Action:     strings.TrimSpace(query.Get("action")),
		EntityType: strings.TrimSpace(query.Get("entityType")),
		EntityID:   strings.TrimSpace(query.Get("entityId")),
		ActorID:    strings.TrimSpace(query.Get("actorId")),
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter := filterFromRequest(r)
	v := shared.NewValidator()
	v.Enum("action", filter.Action, audit.Actions, "unknown audit action")
	if v.Reject(w, r) {
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	events, result, err := h.Service.List(r.Context(), middleware.Session(r).CompanyID, filter, page.Cursor, page.Limit)
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	api.List(w, events, api.Meta{NextCursor: result.NextCursor, HasMore: result.HasMore}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.ListAll(r.Context(), middleware.Session(r).CompanyID, filterFromRequest(r))
	if err != nil {
		api.FailError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "auditoria-"+time.Now().Format("2006-01-02")+".csv"))
	if err := audit.WriteCSV(w, events); err != nil {
		slog.Warn("audit csv export failed", "err", err)
	}
}
