package cataloghandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

var catalogErrors = api.ErrorMap{
	catalog.ErrNameRequired:     {HTTP: http.StatusBadRequest, Code: "validation_error"},
	catalog.ErrInvalidLevel:     {HTTP: http.StatusBadRequest, Code: "validation_error"},
	catalog.ErrInvalidExtension: {HTTP: http.StatusBadRequest, Code: "validation_error"},
	catalog.ErrDuplicateName:    {HTTP: http.StatusConflict, Code: "duplicate_name"},
	catalog.ErrCriterionScope:   {HTTP: http.StatusForbidden, Code: "criterion_shared"},
}

type Handler struct {
	Service *catalog.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *catalog.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCatalogRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		r.With(read).Get("/sectors", h.handleListSectors)
		r.With(write).Post("/sectors", h.handleCreateSector)
		r.With(read).Get("/sectors/{id}", h.handleGetSector)
		r.With(write).Put("/sectors/{id}", h.handleUpdateSector)
		r.With(write).Delete("/sectors/{id}", h.handleDeleteSector)

		r.With(read).Get("/roles", h.handleListRoles)
		r.With(write).Post("/roles", h.handleCreateRole)
		r.With(read).Get("/roles/{id}", h.handleGetRole)
		r.With(write).Put("/roles/{id}", h.handleUpdateRole)
		r.With(write).Delete("/roles/{id}", h.handleDeleteRole)
	})

	// Criteria are global; an admin may manage them without a selected company.
	r.With(read).Get("/criteria", h.handleListCriteria)
	r.With(write).Post("/criteria", h.handleCreateCriterion)
	r.With(read).Get("/criteria/{id}", h.handleGetCriterion)
	r.With(write).Put("/criteria/{id}", h.handleUpdateCriterion)
	r.With(write).Delete("/criteria/{id}", h.handleDeleteCriterion)
}

func (h *Handler) record(r *http.Request, action, entity, id string, before, after any) {
	if h.Audit == nil {
		return
	}
	sess := middleware.Session(r)
	if sess.CompanyID == "" {
		return
	}
	if err := h.Audit.Record(r.Context(), sess, action, entity, id, before, after); err != nil {
		slog.Warn("audit catalog change failed", "err", err, "entity", entity, "id", id)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !shared.DecodeJSON(w, r, dst) {
		return false
	}
	v := shared.NewValidator()
	v.Struct(dst)
	return !v.Reject(w, r)
}

func (h *Handler) handleListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.Service.ListSectors(r.Context(), middleware.Session(r))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	api.List(w, shared.RenderAll(sectors), api.Meta{}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSector(w http.ResponseWriter, r *http.Request) {
	sector, err := h.Service.GetSector(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	api.Success(w, shared.Render(&sector), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateSector(w http.ResponseWriter, r *http.Request) {
	var payload catalog.SectorInput
	if !decode(w, r, &payload) {
		return
	}
	sector, err := h.Service.CreateSector(r.Context(), middleware.Session(r), payload)
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionCreate, "sector", sector.ID, nil, sector)
	api.Created(w, shared.Render(&sector), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSector(w http.ResponseWriter, r *http.Request) {
	var payload catalog.SectorInput
	if !decode(w, r, &payload) {
		return
	}
	before, after, err := h.Service.UpdateSector(r.Context(), middleware.Session(r), chi.URLParam(r, "id"), payload)
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionUpdate, "sector", after.ID, before, after)
	api.Success(w, shared.Render(&after), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteSector(w http.ResponseWriter, r *http.Request) {
	sector, err := h.Service.DeleteSector(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionDelete, "sector", sector.ID, sector, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context(), middleware.Session(r))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	api.List(w, shared.RenderAll(roles), api.Meta{}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Service.GetRole(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	api.Success(w, shared.Render(&role), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var payload catalog.RoleInput
	if !decode(w, r, &payload) {
		return
	}
	role, err := h.Service.CreateRole(r.Context(), middleware.Session(r), payload)
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionCreate, "role", role.ID, nil, role)
	api.Created(w, shared.Render(&role), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var payload catalog.RoleInput
	if !decode(w, r, &payload) {
		return
	}
	before, after, err := h.Service.UpdateRole(r.Context(), middleware.Session(r), chi.URLParam(r, "id"), payload)
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionUpdate, "role", after.ID, before, after)
	api.Success(w, shared.Render(&after), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Service.DeleteRole(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionDelete, "role", role.ID, role, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCriteria(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.Service.ListCriteria(r.Context(), middleware.Session(r), r.URL.Query().Get("level"))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	api.List(w, shared.RenderAll(criteria), api.Meta{}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCriterion(w http.ResponseWriter, r *http.Request) {
	criterion, err := h.Service.GetCriterion(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	api.Success(w, shared.Render(&criterion), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCriterion(w http.ResponseWriter, r *http.Request) {
	var payload catalog.CriterionInput
	if !decode(w, r, &payload) {
		return
	}
	criterion, err := h.Service.CreateCriterion(r.Context(), middleware.Session(r), payload)
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionCreate, "criterion", criterion.ID, nil, criterion)
	api.Created(w, shared.Render(&criterion), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCriterion(w http.ResponseWriter, r *http.Request) {
	var payload catalog.CriterionInput
	if !decode(w, r, &payload) {
		return
	}
	before, after, err := h.Service.UpdateCriterion(r.Context(), middleware.Session(r), chi.URLParam(r, "id"), payload)
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionUpdate, "criterion", after.ID, before, after)
	api.Success(w, shared.Render(&after), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCriterion(w http.ResponseWriter, r *http.Request) {
	criterion, err := h.Service.DeleteCriterion(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, catalogErrors)
		return
	}
	h.record(r, audit.ActionDelete, "criterion", criterion.ID, criterion, nil)
	w.WriteHeader(http.StatusNoContent)
}
