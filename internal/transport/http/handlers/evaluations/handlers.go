package evaluationhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var evaluationErrors = api.ErrorMap{
	evaluations.ErrInvalidDate:         {HTTP: http.StatusBadRequest, Code: "validation_error"},
	evaluations.ErrScoresRequired:      {HTTP: http.StatusBadRequest, Code: "validation_error"},
	evaluations.ErrEmployeeRequired:    {HTTP: http.StatusBadRequest, Code: "validation_error"},
	evaluations.ErrInvalidLevel:        {HTTP: http.StatusBadRequest, Code: "validation_error"},
	evaluations.ErrEmptyBulk:           {HTTP: http.StatusBadRequest, Code: "validation_error"},
	evaluations.ErrBulkTooLarge:        {HTTP: http.StatusRequestEntityTooLarge, Code: "request_too_large"},
	evaluations.ErrInvalidExtension:    {HTTP: http.StatusBadRequest, Code: "validation_error"},
	evaluations.ErrEmployeeNotFound:    {HTTP: http.StatusNotFound, Code: "employee_not_found"},
	evaluations.ErrDuplicateEvaluation: {HTTP: http.StatusConflict, Code: "evaluation_exists"},
}

type Handler struct {
	Service *evaluations.Service
	Perms   middleware.PermissionStore
	Idem    *middleware.IdempotencyStore
}

func NewHandler(service *evaluations.Service, perms middleware.PermissionStore, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Perms: perms, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)
	bulk := middleware.RequirePermission(auth.PermEvaluationsBulk, h.Perms)

	r.Route("/evaluations", func(r chi.Router) {
		r.Use(middleware.RequireCompany)
		r.With(read).Get("/", h.handleList)
		create := r.With(write)
		if h.Idem != nil {
			create = create.With(middleware.Idempotency(h.Idem))
		}
		create.Post("/", h.handleCreate)
		r.With(read).Get("/{id}", h.handleGet)
		r.With(write).Put("/{id}", h.handleUpdate)
		r.With(write).Delete("/{id}", h.handleDelete)
		r.With(bulk).Post("/bulk/delete", h.handleBulkDelete)
		r.With(bulk).Post("/bulk/level", h.handleBulkLevel)
		r.With(bulk).Post("/backfill", h.handleBackfill)
	})
}

type bulkRequest struct {
	IDs   []string `json:"ids" validate:"required,min=1,dive,required"`
	Level string   `json:"level"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !shared.DecodeJSON(w, r, dst) {
		return false
	}
	v := shared.NewValidator()
	v.Struct(dst)
	return !v.Reject(w, r)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, defaultPageSize, maxPageSize)
	query := r.URL.Query()
	filter := evaluations.Filter{
		EmployeeID: strings.TrimSpace(query.Get("employeeId")),
		Sector:     strings.TrimSpace(query.Get("sector")),
		Level:      strings.TrimSpace(query.Get("level")),
		Date:       strings.TrimSpace(query.Get("date")),
	}
	items, result, err := h.Service.List(r.Context(), middleware.Session(r), filter, page.Cursor, page.Limit)
	if err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	api.List(w, shared.RenderAll(items), api.Meta{NextCursor: result.NextCursor, HasMore: result.HasMore}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	evaluation, err := h.Service.Get(r.Context(), middleware.Session(r), chi.URLParam(r, "id"))
	if err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	api.Success(w, shared.Render(&evaluation), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload evaluations.EvaluationInput
	if !decode(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.EmployeeID) == "" && strings.TrimSpace(payload.EmployeeName) == "" {
		v := shared.NewValidator()
		v.Add("employeeId", "employeeId or employeeName is required")
		v.Reject(w, r)
		return
	}
	evaluation, err := h.Service.Create(r.Context(), middleware.Session(r), payload)
	if err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	api.Created(w, shared.Render(&evaluation), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload evaluations.ContentInput
	if !decode(w, r, &payload) {
		return
	}
	evaluation, err := h.Service.UpdateContent(r.Context(), middleware.Session(r), chi.URLParam(r, "id"), payload)
	if err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	api.Success(w, shared.Render(&evaluation), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.Delete(r.Context(), middleware.Session(r), chi.URLParam(r, "id")); err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var payload bulkRequest
	if !decode(w, r, &payload) {
		return
	}
	count, err := h.Service.BulkDelete(r.Context(), middleware.Session(r), payload.IDs)
	if err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	api.Success(w, map[string]int{"deleted": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkLevel(w http.ResponseWriter, r *http.Request) {
	var payload bulkRequest
	if !decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("level", payload.Level, "level is required")
	if v.Reject(w, r) {
		return
	}
	count, err := h.Service.BulkSetLevel(r.Context(), middleware.Session(r), payload.IDs, payload.Level)
	if err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	api.Success(w, map[string]int{"updated": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBackfill(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Backfill(r.Context(), middleware.Session(r), shared.QueryBool(r, "dryRun"))
	if err != nil {
		api.FailError(w, r, err, evaluationErrors)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}
