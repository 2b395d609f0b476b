package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/metrics"
)

type countingEvaluations struct {
	calls map[string]int
	data  map[string][]evaluations.Evaluation
}

func (c *countingEvaluations) All(_ context.Context, companyID string) ([]evaluations.Evaluation, error) {
	c.calls[companyID]++
	return c.data[companyID], nil
}

type staticEmployees struct{}

func (staticEmployees) All(context.Context, string) ([]employees.Employee, error) { return nil, nil }

type failingEmployees struct{}

func (failingEmployees) All(context.Context, string) ([]employees.Employee, error) {
	return nil, errors.New("store down")
}

func TestServiceCachesPerTenant(t *testing.T) {
	evals := &countingEvaluations{
		calls: map[string]int{},
		data: map[string][]evaluations.Evaluation{
			"c1": {eval("v1", "", "Ana", "", "2025-01-01", 8, nil)},
			"c2": {eval("v2", "", "Bia", "", "2025-01-01", 6, nil)},
		},
	}
	collector := metrics.New()
	svc := NewService(evals, staticEmployees{}, nil, collector, time.Minute)
	ctx := context.Background()
	c1 := tenant.Session{CompanyID: "c1"}
	c2 := tenant.Session{CompanyID: "c2"}

	for i := 0; i < 2; i++ {
		if _, err := svc.Dashboard(ctx, c1, Filter{}); err != nil {
			t.Fatalf("dashboard: %v", err)
		}
	}
	d2, err := svc.Dashboard(ctx, c2, Filter{})
	if err != nil {
		t.Fatalf("dashboard c2: %v", err)
	}
	if d2.Ranking[0].Name != "Bia" {
		t.Fatalf("tenant data leaked: %+v", d2.Ranking)
	}
	if evals.calls["c1"] != 1 || evals.calls["c2"] != 1 {
		t.Fatalf("expected one load per tenant, got %+v", evals.calls)
	}

	svc.Invalidate("c1")
	_, _ = svc.Dashboard(ctx, c1, Filter{})
	_, _ = svc.Dashboard(ctx, c2, Filter{})
	if evals.calls["c1"] != 2 || evals.calls["c2"] != 1 {
		t.Fatalf("invalidation must be scoped to the tenant, got %+v", evals.calls)
	}

	snap := collector.Snapshot()
	if snap["analyticsCacheHits"].(uint64) != 2 || snap["analyticsCacheMiss"].(uint64) != 3 {
		t.Fatalf("unexpected cache metrics: %+v", snap)
	}
}

func TestServiceExpiresEntries(t *testing.T) {
	evals := &countingEvaluations{calls: map[string]int{}, data: map[string][]evaluations.Evaluation{}}
	svc := NewService(evals, staticEmployees{}, nil, nil, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	sess := tenant.Session{CompanyID: "c1"}

	_, _ = svc.Rows(context.Background(), sess, Filter{})
	now = now.Add(2 * time.Minute)
	_, _ = svc.Rows(context.Background(), sess, Filter{})
	if evals.calls["c1"] != 2 {
		t.Fatalf("expected reload after ttl, got %d", evals.calls["c1"])
	}
}

func TestServiceErrors(t *testing.T) {
	evals := &countingEvaluations{calls: map[string]int{}, data: map[string][]evaluations.Evaluation{}}
	svc := NewService(evals, failingEmployees{}, nil, nil, 0)
	if _, err := svc.Dashboard(context.Background(), tenant.Session{}, Filter{}); !errors.Is(err, tenant.ErrNoCompany) {
		t.Fatalf("expected no company, got %v", err)
	}
	if _, err := svc.Dashboard(context.Background(), tenant.Session{CompanyID: "c1"}, Filter{From: "ontem"}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Dashboard(context.Background(), tenant.Session{CompanyID: "c1"}, Filter{}); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := svc.Dashboard(context.Background(), tenant.Session{CompanyID: "c1"}, Filter{}); err == nil || evals.calls["c1"] != 2 {
		t.Fatal("failed loads must not be cached")
	}
}
