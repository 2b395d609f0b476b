package goals

import (
	"context"
	"errors"
	"testing"

	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
)

func target(v float64) *float64 { return &v }

func TestGoalServiceLifecycle(t *testing.T) {
	svc := NewService(NewStore(docstore.NewMemory()))
	ctx := context.Background()
	sess := tenant.Session{CompanyID: "c1"}

	goal, err := svc.Create(ctx, sess, GoalInput{Sector: "Vendas", Role: "Analista", Target: target(11)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if goal.Target != 10 {
		t.Fatalf("target must be clamped, got %v", goal.Target)
	}
	if _, err := svc.Create(ctx, sess, GoalInput{Sector: "vendas", Role: "analista", Target: target(8)}); !errors.Is(err, ErrDuplicateScope) {
		t.Fatalf("expected duplicate scope, got %v", err)
	}
	if _, err := svc.Create(ctx, sess, GoalInput{Level: "diretoria", Target: target(8)}); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected invalid level, got %v", err)
	}
	if _, err := svc.Create(ctx, sess, GoalInput{Sector: "Vendas"}); !errors.Is(err, ErrTargetRequired) {
		t.Fatalf("expected target required, got %v", err)
	}
	if _, err := svc.Create(ctx, sess, GoalInput{Sector: "Vendas", Target: target(8.5)}); err != nil {
		t.Fatalf("create sector goal: %v", err)
	}

	res, err := svc.Resolve(ctx, sess, "Vendas", "Analista", "")
	if err != nil || res.Target != 10 || res.Scope != ScopeSectorRole {
		t.Fatalf("resolve: %+v, %v", res, err)
	}
	res, _ = svc.Resolve(ctx, sess, "Vendas", "Gerente", "")
	if res.Target != 8.5 {
		t.Fatalf("expected sector goal, got %+v", res)
	}
	res, _ = svc.Resolve(ctx, tenant.Session{CompanyID: "c2"}, "Vendas", "Analista", "")
	if res.Target != DefaultTarget {
		t.Fatalf("goals must not leak across companies, got %+v", res)
	}

	_, after, err := svc.Update(ctx, sess, goal.ID, GoalInput{Sector: "Vendas", Role: "Analista", Target: target(9.2)})
	if err != nil || after.Target != 9.2 {
		t.Fatalf("update: %+v, %v", after, err)
	}
	if _, err := svc.Delete(ctx, sess, goal.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	res, _ = svc.Resolve(ctx, sess, "Vendas", "Analista", "")
	if res.Target != 8.5 {
		t.Fatalf("expected fallback to sector goal after delete, got %+v", res)
	}
}
