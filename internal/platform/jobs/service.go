package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"perfeval/internal/platform/docstore"
)

const (
	JobImport         = "import"
	JobAuditRetention = "audit_retention"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrQueueFull = errors.New("job queue full")

type RunFunc func(ctx context.Context) (any, error)

type Run struct {
	ID          string `json:"id"`
	CompanyID   string `json:"companyId"`
	JobType     string `json:"jobType"`
	Status      string `json:"status"`
	Details     any    `json:"details,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

type job struct {
	RunID    string
	Type     string
	TenantID string
	Run      RunFunc
}

type schedule struct {
	jobType  string
	interval time.Duration
	run      func(ctx context.Context, tenantID string) (any, error)
}

type Service struct {
	store     docstore.Store
	queue     chan job
	schedules []schedule
}

func New(store docstore.Store) *Service {
	return &Service{
		store: store,
		queue: make(chan job, 128),
	}
}

// Schedule registers a job that runs once per company every interval.
// It must be called before Start.
func (s *Service) Schedule(jobType string, interval time.Duration, run func(ctx context.Context, tenantID string) (any, error)) {
	if interval <= 0 {
		return
	}
	s.schedules = append(s.schedules, schedule{jobType: jobType, interval: interval, run: run})
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	for _, sc := range s.schedules {
		go s.tick(ctx, sc)
	}
}

// Enqueue records a queued run and hands it to the worker. The run id can be
// polled with Get.
func (s *Service) Enqueue(ctx context.Context, jobType, tenantID string, run RunFunc) (string, error) {
	runID, err := s.store.Create(ctx, docstore.JobRuns, map[string]any{
		"companyId": tenantID,
		"jobType":   jobType,
		"status":    StatusQueued,
	})
	if err != nil {
		return "", err
	}
	select {
	case s.queue <- job{RunID: runID, Type: jobType, TenantID: tenantID, Run: run}:
		return runID, nil
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		s.finish(ctx, runID, nil, ErrQueueFull)
		return runID, ErrQueueFull
	}
}

// RunNow executes synchronously and still records the run.
func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run RunFunc) (any, error) {
	runID, err := s.store.Create(ctx, docstore.JobRuns, map[string]any{
		"companyId": tenantID,
		"jobType":   jobType,
		"status":    StatusQueued,
	})
	if err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}
	return s.runJob(ctx, job{RunID: runID, Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Run, error) {
	doc, err := docstore.GetInTenant(ctx, s.store, docstore.JobRuns, tenantID, id)
	if err != nil {
		return Run{}, err
	}
	var out Run
	err = docstore.Decode(doc, &out)
	return out, err
}

func (s *Service) List(ctx context.Context, tenantID, cursor string, limit int) ([]Run, docstore.Page, error) {
	page, err := s.store.FindPage(ctx, docstore.Query{
		Collection: docstore.JobRuns,
		TenantID:   tenantID,
		OrderBy:    docstore.FieldCreatedAt,
		Desc:       true,
		Limit:      limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, page, err
	}
	runs, err := docstore.DecodeAll[Run](page.Items)
	return runs, page, err
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	if j.RunID != "" {
		if err := s.store.Update(ctx, docstore.JobRuns, j.RunID, map[string]any{
			"status":    StatusRunning,
			"startedAt": docstore.Now(),
		}); err != nil {
			slog.Warn("job run update failed", "runId", j.RunID, "err", err)
		}
	}
	details, err := j.Run(ctx)
	s.finish(ctx, j.RunID, details, err)
	return details, err
}

func (s *Service) finish(ctx context.Context, runID string, details any, runErr error) {
	if runID == "" {
		return
	}
	patch := map[string]any{
		"status":      StatusCompleted,
		"completedAt": docstore.Now(),
	}
	if details != nil {
		patch["details"] = details
	}
	if runErr != nil {
		patch["status"] = StatusFailed
		patch["error"] = runErr.Error()
	}
	if err := s.store.Update(ctx, docstore.JobRuns, runID, patch); err != nil {
		slog.Warn("job run update failed", "runId", runID, "err", err)
	}
}

func (s *Service) tick(ctx context.Context, sc schedule) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueForTenants(ctx, sc)
		}
	}
}

func (s *Service) enqueueForTenants(ctx context.Context, sc schedule) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		slog.Warn("scheduler tenant lookup failed", "jobType", sc.jobType, "err", err)
		return
	}
	for _, tenantID := range tenants {
		tenant := tenantID
		if _, err := s.Enqueue(ctx, sc.jobType, tenant, func(ctx context.Context) (any, error) {
			return sc.run(ctx, tenant)
		}); err != nil {
			slog.Warn("scheduled job enqueue failed", "jobType", sc.jobType, "tenantId", tenant, "err", err)
		}
	}
}

func (s *Service) listTenants(ctx context.Context) ([]string, error) {
	docs, err := s.store.Find(ctx, docstore.Query{Collection: docstore.Companies})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}
