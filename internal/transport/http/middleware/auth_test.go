package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"perfeval/internal/domain/auth"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", TenantID: "c1", Role: auth.RoleManager}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	var called bool
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.Role != auth.RoleManager {
			t.Fatalf("unexpected user: %+v", user)
		}
		sess := Session(r)
		if sess.CompanyID != "c1" || sess.UserID != "u1" || sess.IP != "192.0.2.1" {
			t.Fatalf("unexpected session: %+v", sess)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("handler not called")
	}
}

func TestAuthMiddlewareMissingOrBadToken(t *testing.T) {
	handler := Auth("secret")(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("anonymous request must not reach the handler")
	})))

	for _, header := range []string{"", "Bearer not-a-jwt", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestRequireCompany(t *testing.T) {
	handler := RequireCompany(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without company, got %d", rec.Code)
	}

	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "c1"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected pass with company, got %d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(auth.PermEvaluationsWrite, auth.RolePermissionStore{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		role string
		want int
	}{
		{auth.RoleAdmin, http.StatusNoContent},
		{auth.RoleEvaluator, http.StatusNoContent},
		{auth.RoleViewer, http.StatusForbidden},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "c1", Role: tc.role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("role %s: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}
}

func TestRequestIDAndLocale(t *testing.T) {
	handler := RequestID(Locale("pt-BR")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Fatal("expected request id in context")
		}
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	if rec.Header().Get("Content-Language") != "en" {
		t.Fatalf("expected en, got %q", rec.Header().Get("Content-Language"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "given" {
		t.Fatal("expected client request id to be kept")
	}
}

func TestBodyLimitAllowsLargerUploads(t *testing.T) {
	var read int
	handler := BodyLimit(8, 64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 128)
		n, _ := io.ReadFull(r.Body, buf)
		read = n
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if read != 8 {
		t.Fatalf("expected json body capped at 8 bytes, read %d", read)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if read != 32 {
		t.Fatalf("expected full upload body, read %d", read)
	}
}
