package companyhandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

var companyErrors = api.ErrorMap{
	tenant.ErrCompanyNameRequired: {HTTP: http.StatusBadRequest, Code: "validation_error"},
	tenant.ErrCompanyExists:       {HTTP: http.StatusConflict, Code: "company_exists"},
}

type Handler struct {
	Service *tenant.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *tenant.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermCompaniesAdmin, h.Perms))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{companyID}", h.handleGet)
		r.Put("/{companyID}", h.handleUpdate)
		r.Delete("/{companyID}", h.handleDelete)
	})
}

// record files company changes under the company itself so its own log shows them.
func (h *Handler) record(r *http.Request, action, companyID string, before, after any) {
	if h.Audit == nil {
		return
	}
	sess := middleware.Session(r)
	sess.CompanyID = companyID
	if err := h.Audit.Record(r.Context(), sess, action, "company", companyID, before, after); err != nil {
		slog.Warn("audit company change failed", "err", err, "companyId", companyID)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Service.ListCompanies(r.Context(), nil)
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	api.List(w, shared.RenderAll(companies), api.Meta{}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	company, err := h.Service.GetCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	api.Success(w, shared.Render(&company), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload tenant.CompanyInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, r) {
		return
	}
	company, err := h.Service.CreateCompany(r.Context(), payload)
	if err != nil {
		api.FailError(w, r, err, companyErrors)
		return
	}
	h.record(r, audit.ActionCreate, company.ID, nil, company)
	api.Created(w, shared.Render(&company), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload tenant.CompanyInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, r) {
		return
	}
	before, after, err := h.Service.UpdateCompany(r.Context(), chi.URLParam(r, "companyID"), payload)
	if err != nil {
		api.FailError(w, r, err, companyErrors)
		return
	}
	h.record(r, audit.ActionUpdate, after.ID, before, after)
	api.Success(w, shared.Render(&after), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	company, err := h.Service.DeleteCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		api.FailError(w, r, err, companyErrors)
		return
	}
	h.record(r, audit.ActionDelete, company.ID, company, nil)
	w.WriteHeader(http.StatusNoContent)
}
