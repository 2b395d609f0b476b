package employees

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/blob"
	"perfeval/internal/platform/docstore"
)

type countingCache struct{ calls map[string]int }

func (c *countingCache) Invalidate(companyID string) { c.calls[companyID]++ }

func newTestService(t *testing.T) (*Service, *countingCache, blob.Store) {
	t.Helper()
	blobs, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("blob: %v", err)
	}
	cache := &countingCache{calls: map[string]int{}}
	return NewService(NewStore(docstore.NewMemory()), blobs, 64, cache), cache, blobs
}

func TestParseStatus(t *testing.T) {
	cases := map[string]string{"Ativo": StatusActive, "FÉRIAS": StatusOnVacation, "afastado": StatusOnLeave, "inactive": StatusInactive}
	for raw, want := range cases {
		if got, ok := ParseStatus(raw); !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, ok := ParseStatus("retired"); ok {
		t.Fatal("expected unknown status to fail")
	}
}

func TestEmployeeLifecycle(t *testing.T) {
	svc, cache, _ := newTestService(t)
	ctx := context.Background()
	sess := tenant.Session{CompanyID: "c1"}

	ana, err := svc.Create(ctx, sess, EmployeeInput{Name: " Ana  Souza ", Code: "A-01", Sector: "Vendas", Role: "Analista", AdmissionDate: "2023-02-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ana.Name != "Ana Souza" || ana.Status != StatusActive {
		t.Fatalf("unexpected employee: %+v", ana)
	}
	if cache.calls["c1"] != 1 {
		t.Fatalf("expected cache invalidation, got %d", cache.calls["c1"])
	}
	if _, err := svc.Create(ctx, sess, EmployeeInput{Name: "ana souza"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}
	if _, err := svc.Create(ctx, sess, EmployeeInput{Name: "Bruno", Code: "a01"}); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected duplicate code, got %v", err)
	}
	if _, err := svc.Create(ctx, sess, EmployeeInput{Name: "Bruno", AdmissionDate: "2024-05-01", TerminationDate: "2024-01-01"}); !errors.Is(err, ErrDateOrder) {
		t.Fatalf("expected date order error, got %v", err)
	}
	if _, err := svc.Create(ctx, sess, EmployeeInput{Name: "Bruno", AdmissionDate: "01/05/2024"}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if _, err := svc.Create(ctx, sess, EmployeeInput{Name: "Bruno", Status: "Férias", Sector: "RH"}); err != nil {
		t.Fatalf("create bruno: %v", err)
	}

	page, _, err := svc.List(ctx, sess, Filter{Status: "ferias"}, "", 10)
	if err != nil || len(page) != 1 || page[0].Name != "Bruno" {
		t.Fatalf("status filter: %+v, %v", page, err)
	}
	page, _, _ = svc.List(ctx, sess, Filter{Sector: "Vendas"}, "", 10)
	if len(page) != 1 || page[0].ID != ana.ID {
		t.Fatalf("sector filter: %+v", page)
	}

	found, ok, err := svc.Lookup(ctx, "c1", "stale-id", "ANA SOUZA")
	if err != nil || !ok || found.ID != ana.ID {
		t.Fatalf("lookup by name fallback: %+v %v %v", found, ok, err)
	}
	if _, ok, _ := svc.Lookup(ctx, "c2", ana.ID, ""); ok {
		t.Fatal("lookup must not cross tenants")
	}

	_, after, err := svc.Update(ctx, sess, ana.ID, EmployeeInput{Name: "Ana Souza", Code: "A-01", Sector: "Comercial", Status: "inactive"})
	if err != nil || after.Sector != "Comercial" || after.Status != StatusInactive {
		t.Fatalf("update: %+v, %v", after, err)
	}
	if _, err := svc.Delete(ctx, sess, ana.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, sess, ana.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPaginatesByName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sess := tenant.Session{CompanyID: "c1"}
	for _, name := range []string{"Carla", "Álvaro", "Bruno"} {
		if _, err := svc.Create(ctx, sess, EmployeeInput{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	first, page, err := svc.List(ctx, sess, Filter{}, "", 2)
	if err != nil || len(first) != 2 || !page.HasMore {
		t.Fatalf("first page: %+v %+v %v", first, page, err)
	}
	if first[0].Name != "Álvaro" || first[1].Name != "Bruno" {
		t.Fatalf("expected accent-insensitive order, got %s, %s", first[0].Name, first[1].Name)
	}
	second, page, err := svc.List(ctx, sess, Filter{}, page.NextCursor, 2)
	if err != nil || len(second) != 1 || second[0].Name != "Carla" || page.HasMore {
		t.Fatalf("second page: %+v %+v %v", second, page, err)
	}
}

func TestPhotoUploadAndDelete(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	sess := tenant.Session{CompanyID: "c1"}
	emp, err := svc.Create(ctx, sess, EmployeeInput{Name: "Ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for x := 0; x < 200; x++ {
		img.Set(x, 50, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}

	updated, err := svc.UploadPhoto(ctx, sess, emp.ID, &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if updated.PhotoKey != blob.PhotoKey("c1", emp.ID) {
		t.Fatalf("unexpected key %s", updated.PhotoKey)
	}
	rc, err := svc.Photo(ctx, sess, emp.ID)
	if err != nil {
		t.Fatalf("photo: %v", err)
	}
	raw, _ := io.ReadAll(rc)
	rc.Close()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil || format != "jpeg" || cfg.Width != 64 || cfg.Height != 32 {
		t.Fatalf("expected 64x32 jpeg, got %s %dx%d (%v)", format, cfg.Width, cfg.Height, err)
	}

	if _, err := svc.UploadPhoto(ctx, sess, emp.ID, bytes.NewReader([]byte("not an image"))); !errors.Is(err, blob.ErrInvalidImage) {
		t.Fatalf("expected invalid image, got %v", err)
	}

	if _, err := svc.Delete(ctx, sess, emp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := blobs.Get(ctx, updated.PhotoKey); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("photo should be removed with the employee, got %v", err)
	}
}
