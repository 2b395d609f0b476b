package docstore

import (
	"context"
	"errors"
	"testing"
)

func seedEmployees(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []struct{ id, tenant, name string }{
		{"e1", "c1", "Ana"},
		{"e2", "c1", "Bruno"},
		{"e3", "c1", "Carla"},
		{"e4", "c2", "Diego"},
	} {
		if err := s.Set(ctx, Employees, e.id, map[string]any{"companyId": e.tenant, "name": e.name, "tags": []any{"x"}}); err != nil {
			t.Fatalf("set %s: %v", e.id, err)
		}
	}
}

func TestMemoryTenantScoping(t *testing.T) {
	s := NewMemory()
	seedEmployees(t, s)

	docs, err := s.Find(context.Background(), Query{Collection: Employees, TenantID: "c1"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs for c1, got %d", len(docs))
	}
	for _, d := range docs {
		if d.String(FieldTenant) != "c1" {
			t.Fatalf("leaked document %s from %s", d.ID, d.String(FieldTenant))
		}
	}

	if _, err := GetInTenant(context.Background(), s, Employees, "c1", "e4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}

func TestMemoryFilters(t *testing.T) {
	s := NewMemory()
	seedEmployees(t, s)
	ctx := context.Background()

	docs, err := s.Find(ctx, Query{Collection: Employees, TenantID: "c1", Filters: []Filter{In("name", "Ana", "Carla")}})
	if err != nil || len(docs) != 2 {
		t.Fatalf("in filter: %d docs, err %v", len(docs), err)
	}
	docs, err = s.Find(ctx, Query{Collection: Employees, Filters: []Filter{ArrayContains("tags", "x")}})
	if err != nil || len(docs) != 4 {
		t.Fatalf("array-contains: %d docs, err %v", len(docs), err)
	}
	docs, err = s.Find(ctx, Query{Collection: Employees, Filters: []Filter{Eq(FieldID, "e2")}})
	if err != nil || len(docs) != 1 || docs[0].String("name") != "Bruno" {
		t.Fatalf("id filter: %+v, err %v", docs, err)
	}
	if _, err := s.Find(ctx, Query{Collection: Employees, Filters: []Filter{Eq("bad field", 1)}}); CodeOf(err) != CodeFailedPrecondition {
		t.Fatalf("expected failed-precondition for bad field, got %v", err)
	}
}

func TestMemoryPagination(t *testing.T) {
	s := NewMemory()
	seedEmployees(t, s)
	ctx := context.Background()

	q := Query{Collection: Employees, TenantID: "c1", OrderBy: "name", Limit: 2}
	page, err := s.FindPage(ctx, q)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page.Items) != 2 || !page.HasMore || page.NextCursor == "" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if page.Items[0].String("name") != "Ana" || page.Items[1].String("name") != "Bruno" {
		t.Fatalf("unexpected order: %s, %s", page.Items[0].String("name"), page.Items[1].String("name"))
	}

	q.Cursor = page.NextCursor
	page, err = s.FindPage(ctx, q)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page.Items) != 1 || page.HasMore || page.Items[0].String("name") != "Carla" {
		t.Fatalf("unexpected second page: %+v", page)
	}

	q.Cursor = "not-a-cursor"
	if _, err := s.FindPage(ctx, q); CodeOf(err) != CodeFailedPrecondition {
		t.Fatalf("expected failed-precondition for bad cursor, got %v", err)
	}
}

func TestMemoryPaginationDescending(t *testing.T) {
	s := NewMemory()
	seedEmployees(t, s)

	page, err := s.FindPage(context.Background(), Query{Collection: Employees, TenantID: "c1", OrderBy: "name", Desc: true, Limit: 1})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.Items[0].String("name") != "Carla" {
		t.Fatalf("expected Carla first, got %s", page.Items[0].String("name"))
	}
}

func TestMemoryWrites(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	id, err := s.Create(ctx, Sectors, map[string]any{"companyId": "c1", "name": "Vendas"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doc, err := s.Get(ctx, Sectors, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	createdAt := doc.String(FieldCreatedAt)
	if createdAt == "" || doc.String(FieldUpdatedAt) == "" {
		t.Fatalf("expected timestamps, got %+v", doc.Data)
	}

	if err := s.Update(ctx, Sectors, id, map[string]any{"name": "Comercial", "createdAt": "ignored"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, _ = s.Get(ctx, Sectors, id)
	if doc.String("name") != "Comercial" || doc.String("companyId") != "c1" || doc.String(FieldCreatedAt) != createdAt {
		t.Fatalf("unexpected merge result: %+v", doc.Data)
	}

	if err := s.Set(ctx, Sectors, id, map[string]any{"companyId": "c1", "name": "Vendas"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	doc, _ = s.Get(ctx, Sectors, id)
	if doc.String(FieldCreatedAt) != createdAt {
		t.Fatalf("set must keep createdAt, got %s want %s", doc.String(FieldCreatedAt), createdAt)
	}

	if err := s.Update(ctx, Sectors, "missing", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, Sectors, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, Sectors, id); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := s.Get(ctx, Sectors, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemoryBatchIsAtomic(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	err := s.Batch(ctx, []Mutation{
		{Kind: MutationCreate, Collection: Roles, ID: "r1", Data: map[string]any{"name": "Analista"}},
		{Kind: MutationUpdate, Collection: Roles, ID: "missing", Data: map[string]any{"name": "x"}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Get(ctx, Roles, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatal("failed batch must not publish earlier mutations")
	}

	err = s.Batch(ctx, []Mutation{
		{Kind: MutationCreate, Collection: Roles, ID: "r1", Data: map[string]any{"name": "Analista"}},
		{Kind: MutationUpdate, Collection: Roles, ID: "r1", Data: map[string]any{"level": "tactical"}},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	doc, _ := s.Get(ctx, Roles, "r1")
	if doc.String("name") != "Analista" || doc.String("level") != "tactical" {
		t.Fatalf("unexpected batch result: %+v", doc.Data)
	}

	if _, err := s.Create(ctx, Roles, nil); err != nil {
		t.Fatalf("create empty: %v", err)
	}
	err = s.Batch(ctx, []Mutation{{Kind: MutationCreate, Collection: Roles, ID: "r1"}})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestMemoryBatchSeesStoredDocuments(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	for _, id := range []string{"v1", "v2", "v3"} {
		if err := s.Set(ctx, Evaluations, id, map[string]any{"companyId": "c1", "level": "operational"}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	stored, _ := s.Get(ctx, Evaluations, "v3")
	createdAt := stored.String(FieldCreatedAt)

	err := s.Batch(ctx, []Mutation{
		{Kind: MutationUpdate, Collection: Evaluations, ID: "v1", Data: map[string]any{"level": "tactical"}},
		{Kind: MutationUpdate, Collection: Evaluations, ID: "v2", Data: map[string]any{"level": "tactical"}},
		{Kind: MutationSet, Collection: Evaluations, ID: "v3", Data: map[string]any{"companyId": "c1", "level": "strategic"}},
	})
	if err != nil {
		t.Fatalf("batch over stored documents: %v", err)
	}
	for _, id := range []string{"v1", "v2"} {
		doc, _ := s.Get(ctx, Evaluations, id)
		if doc.String("level") != "tactical" || doc.String("companyId") != "c1" {
			t.Fatalf("%s: unexpected data %+v", id, doc.Data)
		}
	}
	doc, _ := s.Get(ctx, Evaluations, "v3")
	if doc.String("level") != "strategic" || doc.String(FieldCreatedAt) != createdAt {
		t.Fatalf("set in batch must keep createdAt %s, got %+v", createdAt, doc.Data)
	}

	err = s.Batch(ctx, []Mutation{
		{Kind: MutationUpdate, Collection: Evaluations, ID: "v1", Data: map[string]any{"level": "strategic"}},
		{Kind: MutationCreate, Collection: Evaluations, ID: "v2", Data: map[string]any{"companyId": "c1"}},
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected already exists for stored id, got %v", err)
	}

	err = s.Batch(ctx, []Mutation{
		{Kind: MutationDelete, Collection: Evaluations, ID: "v1"},
		{Kind: MutationUpdate, Collection: Evaluations, ID: "v1", Data: map[string]any{"level": "strategic"}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after staged delete, got %v", err)
	}
	doc, _ = s.Get(ctx, Evaluations, "v1")
	if doc.String("level") != "tactical" {
		t.Fatalf("failed batches must leave v1 untouched, got %+v", doc.Data)
	}
}

type sectorRecord struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"companyId"`
	Name      string         `json:"name"`
	Extra     map[string]any `json:"-"`
}

func (s *sectorRecord) Extensions() map[string]any     { return s.Extra }
func (s *sectorRecord) SetExtensions(m map[string]any) { s.Extra = m }

func TestCodecRoundTripsExtensions(t *testing.T) {
	rec := &sectorRecord{ID: "s1", CompanyID: "c1", Name: "RH", Extra: map[string]any{"costCenter": "100"}}
	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, ok := data[FieldID]; ok {
		t.Fatal("encode must drop id")
	}
	if data["costCenter"] != "100" {
		t.Fatalf("expected extension in data, got %+v", data)
	}

	var out sectorRecord
	if err := Decode(Document{ID: "s1", Data: data}, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != "s1" || out.Name != "RH" || out.Extra["costCenter"] != "100" {
		t.Fatalf("unexpected decode: %+v", out)
	}

	if err := ValidateExtensions(rec, map[string]any{"name": "x"}); err == nil {
		t.Fatal("expected error for shadowed key")
	}
	if err := ValidateExtensions(rec, map[string]any{"nested": map[string]any{}}); err == nil {
		t.Fatal("expected error for non-scalar value")
	}
}
