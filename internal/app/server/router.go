package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/api"
	analyticshandler "perfeval/internal/transport/http/handlers/analytics"
	audithandler "perfeval/internal/transport/http/handlers/audit"
	authhandler "perfeval/internal/transport/http/handlers/auth"
	cataloghandler "perfeval/internal/transport/http/handlers/catalog"
	companyhandler "perfeval/internal/transport/http/handlers/companies"
	employeehandler "perfeval/internal/transport/http/handlers/employees"
	evaluationhandler "perfeval/internal/transport/http/handlers/evaluations"
	goalhandler "perfeval/internal/transport/http/handlers/goals"
	jobhandler "perfeval/internal/transport/http/handlers/jobs"
	transferhandler "perfeval/internal/transport/http/handlers/transfer"
	"perfeval/internal/transport/http/middleware"
)

// jsonBodyBytes caps non-multipart bodies; uploads get MAX_BODY_BYTES.
const jsonBodyBytes = 1 << 20

func NewRouter(s *Services) http.Handler {
	cfg := s.Config
	perms := auth.RolePermissionStore{}
	idem := middleware.NewIdempotencyStore(s.Docs)

	jsonLimit := int64(jsonBodyBytes)
	if cfg.MaxBodyBytes < jsonLimit {
		jsonLimit = cfg.MaxBodyBytes
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Locale(cfg.DefaultLocale))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(jsonLimit, cfg.MaxBodyBytes))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.Logger(s.Metrics))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Docs.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, s.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(s.Auth, s.Tenants, perms)
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			authHandler.RegisterRoutes(r)
			companyhandler.NewHandler(s.Tenants, perms, s.Audit).RegisterRoutes(r)
			cataloghandler.NewHandler(s.Catalog, perms, s.Audit).RegisterRoutes(r)
			employeehandler.NewHandler(s.Employees, perms, s.Audit).RegisterRoutes(r)
			evaluationhandler.NewHandler(s.Evaluations, perms, idem).RegisterRoutes(r)
			goalhandler.NewHandler(s.Goals, perms, s.Audit, s.Analytics).RegisterRoutes(r)
			analyticshandler.NewHandler(s.Analytics, perms).RegisterRoutes(r)
			transferhandler.NewHandler(s.Importer, s.Exporter, s.Jobs, s.Audit, perms, idem).RegisterRoutes(r)
			audithandler.NewHandler(s.Audit, perms).RegisterRoutes(r)
			jobhandler.NewHandler(s.Jobs, perms, s.RetentionJob()).RegisterRoutes(r)
		})
	})

	return router
}
