package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/requestctx"
)

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		header   string
		fallback string
		want     string
	}{
		{"", "pt-BR", LocalePT},
		{"", "en", LocaleEN},
		{"en-US,en;q=0.9", "pt-BR", LocaleEN},
		{"pt-BR,pt;q=0.9,en;q=0.5", "en", LocalePT},
		{"pt", "en", LocalePT},
		{"de-DE", "pt-BR", LocalePT},
		{"de-DE", "en", LocaleEN},
	}
	for _, tc := range tests {
		if got := MatchLocale(tc.header, tc.fallback); got != tc.want {
			t.Fatalf("MatchLocale(%q, %q) = %q, want %q", tc.header, tc.fallback, got, tc.want)
		}
	}
}

var errSample = errors.New("sample rejected")

func TestResolve(t *testing.T) {
	domain := ErrorMap{errSample: {http.StatusConflict, "conflict"}}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"domain sentinel wrapped", fmt.Errorf("create: %w", errSample), http.StatusConflict},
		{"no company", tenant.ErrNoCompany, http.StatusBadRequest},
		{"store not found", &docstore.Error{Code: docstore.CodeNotFound}, http.StatusNotFound},
		{"store permission", &docstore.Error{Code: docstore.CodePermissionDenied}, http.StatusForbidden},
		{"store exhausted", &docstore.Error{Code: docstore.CodeResourceExhausted}, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.err, domain); got.HTTP != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got.HTTP)
			}
		})
	}
}

func TestFailErrorLocalizesAndHidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := requestctx.WithLocale(requestctx.WithRequestID(req.Context(), "req-1"), LocaleEN)
	rec := httptest.NewRecorder()
	FailError(rec, req.WithContext(ctx), errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.RequestID != "req-1" || env.Error.Message != "An unexpected error occurred. Please try again." {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Error.Details != nil {
		t.Fatalf("internal error must not carry details, got %v", env.Error.Details)
	}

	rec = httptest.NewRecorder()
	FailError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tenant.ErrNoCompany)
	env = Envelope{}
	_ = json.NewDecoder(rec.Body).Decode(&env)
	if env.Error.Code != "company_required" || env.Error.Message != "Selecione uma empresa para continuar." {
		t.Fatalf("expected pt-BR default message, got %+v", env.Error)
	}
}

func TestListWritesEmptyArrayAndMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	List[string](rec, nil, Meta{NextCursor: "abc", HasMore: true}, "r")
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if items, ok := body["data"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty array, got %v", body["data"])
	}
	meta := body["meta"].(map[string]any)
	if meta["nextCursor"] != "abc" || meta["hasMore"] != true {
		t.Fatalf("unexpected meta %v", meta)
	}
}
