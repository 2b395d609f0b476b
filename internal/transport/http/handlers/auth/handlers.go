package authhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

var authErrors = api.ErrorMap{
	auth.ErrInvalidCredentials: {HTTP: http.StatusUnauthorized, Code: "invalid_credentials"},
	auth.ErrMFARequired:        {HTTP: http.StatusUnauthorized, Code: "mfa_required"},
	auth.ErrInvalidMFACode:     {HTTP: http.StatusUnauthorized, Code: "mfa_invalid"},
	auth.ErrMFANotConfigured:   {HTTP: http.StatusBadRequest, Code: "mfa_invalid"},
	auth.ErrCompanyNotAllowed:  {HTTP: http.StatusForbidden, Code: "company_not_allowed"},
	auth.ErrUserExists:         {HTTP: http.StatusConflict, Code: "user_exists"},
	auth.ErrInvalidRole:        {HTTP: http.StatusBadRequest, Code: "validation_error"},
	auth.ErrInvalidStatus:      {HTTP: http.StatusBadRequest, Code: "validation_error"},
}

type Handler struct {
	Service   *auth.Service
	Companies *tenant.Service
	Perms     middleware.PermissionStore
}

func NewHandler(service *auth.Service, companies *tenant.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Companies: companies, Perms: perms}
}

// RegisterPublicRoutes mounts the routes reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Post("/auth/mfa/setup", h.handleMFASetup)
	r.Post("/auth/mfa/enable", h.handleMFAEnable)
	r.Post("/auth/mfa/disable", h.handleMFADisable)
	r.Get("/session/companies", h.handleSessionCompanies)
	r.Post("/session/company", h.handleSelectCompany)

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermUsersAdmin, h.Perms))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Put("/{userID}/role", h.handleSetRole)
		r.Put("/{userID}/companies", h.handleSetCompanies)
		r.Put("/{userID}/status", h.handleSetStatus)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode" validate:"omitempty,numeric,len=6"`
}

type codeRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

type companyRequest struct {
	CompanyID string `json:"companyId" validate:"required"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager evaluator viewer"`
}

type companiesRequest struct {
	CompanyIDs []string `json:"companyIds" validate:"dive,required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active disabled"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !shared.DecodeJSON(w, r, dst) {
		return false
	}
	v := shared.NewValidator()
	v.Struct(dst)
	return !v.Reject(w, r)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !decode(w, r, &payload) {
		return
	}
	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	allowed, err := h.Service.AllowedCompanies(r.Context(), user.UserID)
	if err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, auth.Identity{
		ID:         user.UserID,
		Name:       user.Name,
		Role:       user.Role,
		CompanyID:  user.TenantID,
		CompanyIDs: allowed,
	}, middleware.GetRequestID(r.Context()))
}

// handleSessionCompanies lists the active companies the caller may select.
func (h *Handler) handleSessionCompanies(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	allowed, err := h.Service.AllowedCompanies(r.Context(), user.UserID)
	if err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	companies, err := h.Companies.ListCompanies(r.Context(), allowed)
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	active := make([]tenant.Company, 0, len(companies))
	for _, c := range companies {
		if c.Active {
			active = append(active, c)
		}
	}
	api.Success(w, active, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelectCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload companyRequest
	if !decode(w, r, &payload) {
		return
	}
	company, err := h.Companies.GetCompany(r.Context(), payload.CompanyID)
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	if !company.Active {
		api.FailCode(w, r, http.StatusForbidden, "company_not_allowed")
		return
	}
	result, err := h.Service.SelectCompany(r.Context(), user.UserID, company.ID)
	if err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	setup, err := h.Service.SetupMFA(r.Context(), user.UserID)
	if err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload codeRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.EnableMFA(r.Context(), user.UserID, payload.Code); err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, map[string]bool{"mfaEnabled": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload codeRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.DisableMFA(r.Context(), user.UserID, payload.Code); err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, map[string]bool{"mfaEnabled": false}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	api.List(w, users, api.Meta{}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload auth.UserInput
	if !decode(w, r, &payload) {
		return
	}
	user, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Created(w, user.Public(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var payload roleRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.SetRole(r.Context(), chi.URLParam(r, "userID"), payload.Role); err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetCompanies(w http.ResponseWriter, r *http.Request) {
	var payload companiesRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.SetMemberships(r.Context(), chi.URLParam(r, "userID"), payload.CompanyIDs); err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusRequest
	if !decode(w, r, &payload) {
		return
	}
	if err := h.Service.SetStatus(r.Context(), chi.URLParam(r, "userID"), payload.Status); err != nil {
		api.FailError(w, r, err, authErrors)
		return
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}
