package goalhandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/goals"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

var goalErrors = api.ErrorMap{
	goals.ErrTargetRequired:   {HTTP: http.StatusBadRequest, Code: "validation_error"},
	goals.ErrInvalidLevel:     {HTTP: http.StatusBadRequest, Code: "validation_error"},
	goals.ErrInvalidExtension: {HTTP: http.StatusBadRequest, Code: "validation_error"},
	goals.ErrDuplicateScope:   {HTTP: http.StatusConflict, Code: "duplicate_goal"},
}

// Invalidator drops cached aggregates that embed goal targets.
type Invalidator interface {
	Invalidate(companyID string)
}

type Handler struct {
	Service *goals.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
	Cache   Invalidator
}

func NewHandler(service *goals.Service, perms middleware.PermissionStore, auditSvc *audit.Service, cache Invalidator) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Cache: cache}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermGoalsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)

	r.Route("/goals", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/resolve", h.handleResolve)
		r.With(read).Get("/{id}", h.handleGet)
		r.With(write).Put("/{id}", h.handleUpdate)
		r.With(write).Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) record(r *http.Request, action, id string, before, after any) {
	if h.Cache != nil {
		h.Cache.Invalidate(middleware.Session(r).CompanyID)
	}
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), middleware.Session(r), action, "goal", id, before, after); err != nil {
		slog.Warn("audit goal change failed", "err", err, "id", id)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), middleware.Session(r))
	if err != nil {
		api.FailError(w, r, err, goalErrors)
		return
	}
	api.List(w, shared.RenderAll(list), api.Meta{}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	goal, err := h.Service.Get(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, goalErrors)
		return
	}
	api.Success(w, shared.Render(&goal), middleware.GetRequestID(r.Context()))
}

// handleResolve answers which target applies to ?sector=&role=&level=.
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resolution, err := h.Service.Resolve(r.Context(), middleware.Session(r), query.Get("sector"), query.Get("role"), query.Get("level"))
	if err != nil {
		api.FailError(w, r, err, goalErrors)
		return
	}
	api.Success(w, resolution, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (goals.GoalInput, bool) {
	var payload goals.GoalInput
	if !shared.DecodeJSON(w, r, &payload) {
		return payload, false
	}
	v := shared.NewValidator()
	v.Struct(payload)
	return payload, !v.Reject(w, r)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	goal, err := h.Service.Create(r.Context(), middleware.Session(r), payload)
	if err != nil {
		api.FailError(w, r, err, goalErrors)
		return
	}
	h.record(r, audit.ActionCreate, goal.ID, nil, goal)
	api.Created(w, shared.Render(&goal), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	before, after, err := h.Service.Update(r.Context(), middleware.Session(r), chi.URLParam(r, "id"), payload)
	if err != nil {
		api.FailError(w, r, err, goalErrors)
		return
	}
	h.record(r, audit.ActionUpdate, after.ID, before, after)
	api.Success(w, shared.Render(&after), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	goal, err := h.Service.Delete(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, goalErrors)
		return
	}
	h.record(r, audit.ActionDelete, goal.ID, goal, nil)
	w.WriteHeader(http.StatusNoContent)
}
