package employeehandler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/employees"
	"perfeval/internal/platform/blob"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	photoField      = "photo"
)

var employeeErrors = api.ErrorMap{
	employees.ErrNameRequired:     {HTTP: http.StatusBadRequest, Code: "validation_error"},
	employees.ErrInvalidStatus:    {HTTP: http.StatusBadRequest, Code: "validation_error"},
	employees.ErrInvalidDate:      {HTTP: http.StatusBadRequest, Code: "validation_error"},
	employees.ErrDateOrder:        {HTTP: http.StatusBadRequest, Code: "validation_error"},
	employees.ErrInvalidExtension: {HTTP: http.StatusBadRequest, Code: "validation_error"},
	catalog.ErrInvalidLevel:       {HTTP: http.StatusBadRequest, Code: "validation_error"},
	employees.ErrDuplicateName:    {HTTP: http.StatusConflict, Code: "duplicate_name"},
	employees.ErrDuplicateCode:    {HTTP: http.StatusConflict, Code: "duplicate_code"},
	employees.ErrNoPhoto:          {HTTP: http.StatusNotFound, Code: "photo_not_found"},
	blob.ErrNotFound:              {HTTP: http.StatusNotFound, Code: "photo_not_found"},
	blob.ErrInvalidImage:          {HTTP: http.StatusBadRequest, Code: "invalid_file"},
}

type Handler struct {
	Service *employees.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *employees.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)

	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{id}", h.handleGet)
		r.With(write).Put("/{id}", h.handleUpdate)
		r.With(write).Delete("/{id}", h.handleDelete)
		r.With(read).Get("/{id}/photo", h.handleGetPhoto)
		r.With(write).Put("/{id}/photo", h.handleUploadPhoto)
		r.With(write).Delete("/{id}/photo", h.handleDeletePhoto)
	})
}

func (h *Handler) record(r *http.Request, action, id string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), middleware.Session(r), action, "employee", id, before, after); err != nil {
		slog.Warn("audit employee change failed", "err", err, "id", id)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, defaultPageSize, maxPageSize)
	query := r.URL.Query()
	filter := employees.Filter{
		Status: strings.TrimSpace(query.Get("status")),
		Sector: strings.TrimSpace(query.Get("sector")),
		Role:   strings.TrimSpace(query.Get("role")),
	}
	if filter.Status != "" {
		status, ok := employees.ParseStatus(filter.Status)
		if !ok {
			v := shared.NewValidator()
			v.Add("status", "must be one of active, inactive, on_leave, on_vacation")
			v.Reject(w, r)
			return
		}
		filter.Status = status
	}

	items, result, err := h.Service.List(r.Context(), middleware.Session(r), filter, page.Cursor, page.Limit)
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	api.List(w, shared.RenderAll(items), api.Meta{NextCursor: result.NextCursor, HasMore: result.HasMore}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.Get(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	api.Success(w, shared.Render(&employee), middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (employees.EmployeeInput, bool) {
	var payload employees.EmployeeInput
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
	employee, err := h.Service.Create(r.Context(), middleware.Session(r), payload)
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	h.record(r, audit.ActionCreate, employee.ID, nil, employee)
	api.Created(w, shared.Render(&employee), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	before, after, err := h.Service.Update(r.Context(), middleware.Session(r), chi.URLParam(r, "id"), payload)
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	h.record(r, audit.ActionUpdate, after.ID, before, after)
	api.Success(w, shared.Render(&after), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.Delete(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	h.record(r, audit.ActionDelete, employee.ID, employee, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	rc, err := h.Service.Photo(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("stream employee photo failed", "err", err)
	}
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile(photoField)
	if err != nil {
		v := shared.NewValidator()
		v.Add(photoField, "multipart file is required")
		v.Reject(w, r)
		return
	}
	defer file.Close()

	employee, err := h.Service.UploadPhoto(r.Context(), middleware.Session(r), chi.URLParam(r, "id"), file)
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	h.record(r, audit.ActionUpdate, employee.ID, map[string]any{"photoKey": nil}, map[string]any{"photoKey": employee.PhotoKey})
	api.Success(w, shared.Render(&employee), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.DeletePhoto(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, employeeErrors)
		return
	}
	api.Success(w, shared.Render(&employee), middleware.GetRequestID(r.Context()))
}
