package server

import (
	"context"
	"fmt"
	"time"

	"perfeval/internal/domain/analytics"
	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/goals"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/domain/transfer"
	"perfeval/internal/platform/blob"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/crypto"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/jobs"
	"perfeval/internal/platform/metrics"
)

// Services is the wired domain layer shared by the HTTP server and the CLI.
type Services struct {
	Config      config.Config
	Docs        docstore.Store
	Metrics     *metrics.Collector
	Jobs        *jobs.Service
	Audit       *audit.Service
	Tenants     *tenant.Service
	Auth        *auth.Service
	Catalog     *catalog.Service
	Employees   *employees.Service
	Evaluations *evaluations.Service
	Goals       *goals.Service
	Analytics   *analytics.Service
	Importer    *transfer.Importer
	Exporter    *transfer.Exporter
}

// cacheRef lets the writers hold the analytics cache before it exists; the
// cache in turn reads through those writers.
type cacheRef struct {
	target *analytics.Service
}

func (c *cacheRef) Invalidate(companyID string) {
	if c.target != nil {
		c.target.Invalidate(companyID)
	}
}

func NewServices(cfg config.Config, docs docstore.Store, blobs blob.Store) (*Services, error) {
	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	collector := metrics.New()
	cache := &cacheRef{}
	auditService := audit.New(docs)
	tenants := tenant.NewService(tenant.NewStore(docs))
	employeeService := employees.NewService(employees.NewStore(docs), blobs, cfg.PhotoMaxPixels, cache)
	evaluationService := evaluations.NewService(evaluations.NewStore(docs), employeeService, auditService, cache)
	goalService := goals.NewService(goals.NewStore(docs))
	analyticsService := analytics.NewService(evaluationService, employeeService, goalService, collector, analytics.DefaultCacheTTL)
	cache.target = analyticsService
	catalogService := catalog.NewService(catalog.NewStore(docs))

	return &Services{
		Config:      cfg,
		Docs:        docs,
		Metrics:     collector,
		Jobs:        jobs.New(docs),
		Audit:       auditService,
		Tenants:     tenants,
		Auth:        auth.NewService(auth.NewStore(docs), tenants, sealer, cfg.JWTSecret, cfg.TokenTTL),
		Catalog:     catalogService,
		Employees:   employeeService,
		Evaluations: evaluationService,
		Goals:       goalService,
		Analytics:   analyticsService,
		Importer: transfer.NewImporter(docs, transfer.Services{
			Employees:   employeeService,
			Evaluations: evaluationService,
			Catalog:     catalogService,
			Cache:       cache,
			Audit:       auditService,
			Metrics:     collector,
		}, cfg.ImportBatchSize),
		Exporter: transfer.NewExporter(analyticsService, collector),
	}, nil
}

// RetentionJob purges one company's audit entries older than
// AUDIT_RETENTION_DAYS. It is nil when retention is disabled.
func (s *Services) RetentionJob() func(ctx context.Context, tenantID string) (any, error) {
	days := s.Config.AuditRetentionDays
	if days <= 0 {
		return nil
	}
	return func(ctx context.Context, tenantID string) (any, error) {
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		deleted, err := s.Audit.Purge(ctx, tenantID, cutoff)
		return map[string]any{"deleted": deleted, "cutoff": cutoff.Format(time.RFC3339)}, err
	}
}
