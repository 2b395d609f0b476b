package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"perfeval/internal/platform/docstore"
)

func TestRunNowRecordsRun(t *testing.T) {
	store := docstore.NewMemory()
	svc := New(store)
	ctx := context.Background()

	details, err := svc.RunNow(ctx, JobImport, "c1", func(ctx context.Context) (any, error) {
		return map[string]any{"imported": 2}, nil
	})
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if details.(map[string]any)["imported"] != 2 {
		t.Fatalf("unexpected details: %+v", details)
	}

	runs, _, err := svc.List(ctx, "c1", "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != StatusCompleted || runs[0].JobType != JobImport {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestWorkerRecordsFailure(t *testing.T) {
	store := docstore.NewMemory()
	svc := New(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	runID, err := svc.Enqueue(ctx, JobImport, "c1", func(ctx context.Context) (any, error) {
		return nil, errors.New("bad file")
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		run, err := svc.Get(ctx, "c1", runID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if run.Status == StatusFailed {
			if run.Error != "bad file" {
				t.Fatalf("unexpected error text %q", run.Error)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not fail in time")
}

func TestGetIsTenantScoped(t *testing.T) {
	store := docstore.NewMemory()
	svc := New(store)
	ctx := context.Background()
	if _, err := svc.RunNow(ctx, JobImport, "c1", func(ctx context.Context) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("run now: %v", err)
	}
	runs, _, _ := svc.List(ctx, "c1", "", 10)
	if _, err := svc.Get(ctx, "c2", runs[0].ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected not found for other tenant, got %v", err)
	}
}
