package analyticshandler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/analytics"
	"perfeval/internal/domain/auth"
	"perfeval/internal/platform/requestctx"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
)

// Errors maps dashboard filter failures; the export handler shares it.
var Errors = api.ErrorMap{
	analytics.ErrInvalidPeriod:  {HTTP: http.StatusBadRequest, Code: "invalid_filter"},
	analytics.ErrInvalidRange:   {HTTP: http.StatusBadRequest, Code: "invalid_filter"},
	analytics.ErrInvalidLevel:   {HTTP: http.StatusBadRequest, Code: "invalid_filter"},
	analytics.ErrInvalidStatus:  {HTTP: http.StatusBadRequest, Code: "invalid_filter"},
	analytics.ErrUnknownSection: {HTTP: http.StatusNotFound, Code: "section_not_found"},
}

type Handler struct {
	Service *analytics.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *analytics.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		r.Use(middleware.RequirePermission(auth.PermAnalyticsRead, h.Perms))
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/{section}", h.handleSection)
	})
}

// FilterFromRequest reads the dashboard filter from the query string:
// from, to (YYYY-MM), sector, role, level, status, employeeId, top.
func FilterFromRequest(r *http.Request) analytics.Filter {
	query := r.URL.Query()
	filter := analytics.Filter{
		From:       strings.TrimSpace(query.Get("from")),
		To:         strings.TrimSpace(query.Get("to")),
		Sector:     strings.TrimSpace(query.Get("sector")),
		Role:       strings.TrimSpace(query.Get("role")),
		Level:      strings.TrimSpace(query.Get("level")),
		Status:     strings.TrimSpace(query.Get("status")),
		EmployeeID: strings.TrimSpace(query.Get("employeeId")),
		Locale:     requestctx.GetLocale(r.Context()),
	}
	if top, err := strconv.Atoi(query.Get("top")); err == nil && top > 0 {
		filter.Top = top
	}
	return filter
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Service.Dashboard(r.Context(), middleware.Session(r), FilterFromRequest(r))
	if err != nil {
		api.FailError(w, r, err, Errors)
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSection(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Service.Dashboard(r.Context(), middleware.Session(r), FilterFromRequest(r))
	if err != nil {
		api.FailError(w, r, err, Errors)
		return
	}
	section, err := dashboard.Section(chi.URLParam(r, "section"))
	if err != nil {
		api.FailError(w, r, err, Errors)
		return
	}
	api.Success(w, section, middleware.GetRequestID(r.Context()))
}
