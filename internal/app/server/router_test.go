package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"perfeval/internal/platform/blob"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/db"
	"perfeval/internal/platform/docstore"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		NextCursor string `json:"nextCursor"`
		HasMore    bool   `json:"hasMore"`
	} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiTest struct {
	t         *testing.T
	handler   http.Handler
	companyID string
}

func testConfig() config.Config {
	return config.Config{
		Environment:        "test",
		DocstoreDriver:     config.DriverMemory,
		SeedCompanyName:    "Acme Ltda",
		SeedAdminEmail:     "admin@example.com",
		SeedAdminPassword:  "admin-pass-123",
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		BlobDriver:         config.BlobLocal,
		PhotoMaxPixels:     64,
		MaxBodyBytes:       5 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		ImportBatchSize:    100,
		DefaultLocale:      "pt-BR",
	}
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	cfg := testConfig()
	docs := docstore.NewMemory()
	seeded, err := db.Seed(context.Background(), docs, cfg)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	blobs, err := blob.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	services, err := NewServices(cfg, docs, blobs)
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	return &apiTest{t: t, handler: NewRouter(services), companyID: seeded.CompanyID}
}

func (a *apiTest) send(req *http.Request, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *apiTest) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.send(req, token)
}

func (a *apiTest) upload(method, path, token, field, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			a.t.Fatalf("write field: %v", err)
		}
	}
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		a.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		a.t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		a.t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.send(req, token)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, want int, out any) envelope {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v (%s)", err, string(env.Data))
		}
	}
	return env
}

func (a *apiTest) login(email, password string) (string, string) {
	a.t.Helper()
	var result struct {
		Token string `json:"token"`
		User  struct {
			CompanyID string `json:"companyId"`
		} `json:"user"`
	}
	decode(a.t, a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password}), http.StatusOK, &result)
	if result.Token == "" {
		a.t.Fatal("expected a token")
	}
	return result.Token, result.User.CompanyID
}

func (a *apiTest) adminToken() string {
	a.t.Helper()
	token, _ := a.login("admin@example.com", "admin-pass-123")
	var selected struct {
		Token string `json:"token"`
	}
	decode(a.t, a.do(http.MethodPost, "/api/v1/session/company", token, map[string]string{"companyId": a.companyID}), http.StatusOK, &selected)
	return selected.Token
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPITest(t)
	if rec := a.do(http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := a.do(http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
	var snapshot map[string]any
	decode(t, a.do(http.MethodGet, "/metrics", "", nil), http.StatusOK, &snapshot)
	if len(snapshot) == 0 {
		t.Fatal("expected metrics snapshot")
	}
}

func TestLoginAndCompanySelection(t *testing.T) {
	a := newAPITest(t)

	env := decode(t, a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"}), http.StatusUnauthorized, nil)
	if env.Error == nil || env.Error.Code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %+v", env.Error)
	}
	env = decode(t, a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"}), http.StatusBadRequest, nil)
	if env.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", env.Error.Code)
	}
	decode(t, a.do(http.MethodGet, "/api/v1/auth/me", "", nil), http.StatusUnauthorized, nil)

	token, companyID := a.login("admin@example.com", "admin-pass-123")
	if companyID != "" {
		t.Fatalf("admin without memberships should not get a preselected company, got %q", companyID)
	}
	env = decode(t, a.do(http.MethodGet, "/api/v1/employees", token, nil), http.StatusBadRequest, nil)
	if env.Error.Code != "company_required" {
		t.Fatalf("expected company_required, got %s", env.Error.Code)
	}

	var companies []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decode(t, a.do(http.MethodGet, "/api/v1/session/companies", token, nil), http.StatusOK, &companies)
	if len(companies) != 1 || companies[0].ID != a.companyID {
		t.Fatalf("unexpected companies: %+v", companies)
	}

	decode(t, a.do(http.MethodPost, "/api/v1/session/company", token, map[string]string{"companyId": "missing"}), http.StatusNotFound, nil)

	scoped := a.adminToken()
	var me struct {
		CompanyID string `json:"companyId"`
		Role      string `json:"role"`
	}
	decode(t, a.do(http.MethodGet, "/api/v1/auth/me", scoped, nil), http.StatusOK, &me)
	if me.CompanyID != a.companyID || me.Role != "admin" {
		t.Fatalf("unexpected identity: %+v", me)
	}
}

func TestEvaluationFlow(t *testing.T) {
	a := newAPITest(t)
	token := a.adminToken()

	var employee map[string]any
	decode(t, a.do(http.MethodPost, "/api/v1/employees", token, map[string]any{
		"name":   "Ana Souza",
		"sector": "Vendas",
		"role":   "Analista",
		"extra":  map[string]any{"costCenter": "100"},
	}), http.StatusCreated, &employee)
	if employee["costCenter"] != "100" || employee["status"] != "active" {
		t.Fatalf("unexpected employee: %+v", employee)
	}
	employeeID, _ := employee["id"].(string)

	env := decode(t, a.do(http.MethodPost, "/api/v1/employees", token, map[string]any{"name": "ana  souza"}), http.StatusConflict, nil)
	if env.Error.Code != "duplicate_name" {
		t.Fatalf("expected duplicate_name, got %s", env.Error.Code)
	}

	body := map[string]any{
		"employeeName": "Ana Souza",
		"date":         "2025-01-15",
		"scores":       map[string]float64{"Comunicação": 8, "Ética": 9},
	}
	var created struct {
		ID         string  `json:"id"`
		EmployeeID string  `json:"employeeId"`
		Date       string  `json:"date"`
		Average    float64 `json:"average"`
	}
	first := a.do(http.MethodPost, "/api/v1/evaluations", token, body, "Idempotency-Key", "eval-1")
	decode(t, first, http.StatusCreated, &created)
	if created.EmployeeID != employeeID || created.Date != "2025-01-01" || created.Average != 8.5 {
		t.Fatalf("unexpected evaluation: %+v", created)
	}

	replay := a.do(http.MethodPost, "/api/v1/evaluations", token, body, "Idempotency-Key", "eval-1")
	if replay.Code != http.StatusCreated || replay.Header().Get("Idempotent-Replay") != "true" {
		t.Fatalf("expected replay, got %d %q", replay.Code, replay.Header().Get("Idempotent-Replay"))
	}
	if replay.Body.String() != first.Body.String() {
		t.Fatal("replayed body differs from the original response")
	}

	other := map[string]any{"employeeId": employeeID, "date": "2025-01-20", "scores": map[string]float64{"Ética": 5}}
	env = decode(t, a.do(http.MethodPost, "/api/v1/evaluations", token, other, "Idempotency-Key", "eval-1"), http.StatusConflict, nil)
	if env.Error.Code != "idempotency_conflict" {
		t.Fatalf("expected idempotency_conflict, got %s", env.Error.Code)
	}
	env = decode(t, a.do(http.MethodPost, "/api/v1/evaluations", token, other), http.StatusConflict, nil)
	if env.Error.Code != "evaluation_exists" {
		t.Fatalf("expected evaluation_exists, got %s", env.Error.Code)
	}
	env = decode(t, a.do(http.MethodPost, "/api/v1/evaluations", token, map[string]any{"employeeName": "Ninguém", "date": "2025-02", "scores": map[string]float64{"Ética": 5}}), http.StatusNotFound, nil)
	if env.Error.Code != "employee_not_found" {
		t.Fatalf("expected employee_not_found, got %s", env.Error.Code)
	}

	var list []map[string]any
	env = decode(t, a.do(http.MethodGet, "/api/v1/evaluations?employeeId="+employeeID, token, nil), http.StatusOK, &list)
	if len(list) != 1 || env.Meta == nil || env.Meta.HasMore {
		t.Fatalf("unexpected list: %d items, meta %+v", len(list), env.Meta)
	}

	var dashboard struct {
		Summary struct {
			Evaluations int     `json:"evaluations"`
			Average     float64 `json:"average"`
		} `json:"summary"`
	}
	decode(t, a.do(http.MethodGet, "/api/v1/analytics/dashboard", token, nil), http.StatusOK, &dashboard)
	if dashboard.Summary.Evaluations != 1 || dashboard.Summary.Average != 8.5 {
		t.Fatalf("unexpected summary: %+v", dashboard.Summary)
	}
	decode(t, a.do(http.MethodGet, "/api/v1/analytics/ranking", token, nil), http.StatusOK, nil)
	env = decode(t, a.do(http.MethodGet, "/api/v1/analytics/unknown", token, nil), http.StatusNotFound, nil)
	if env.Error.Code != "section_not_found" {
		t.Fatalf("expected section_not_found, got %s", env.Error.Code)
	}
	decode(t, a.do(http.MethodGet, "/api/v1/analytics/dashboard?from=2025-13", token, nil), http.StatusBadRequest, nil)

	export := a.do(http.MethodGet, "/api/v1/exports?format=csv", token, nil)
	if export.Code != http.StatusOK {
		t.Fatalf("export: %d %s", export.Code, export.Body.String())
	}
	if !strings.HasPrefix(export.Header().Get("Content-Type"), "text/csv") || !strings.Contains(export.Header().Get("Content-Disposition"), ".csv") {
		t.Fatalf("unexpected export headers: %v", export.Header())
	}
	if !strings.Contains(export.Body.String(), "Ana Souza") {
		t.Fatalf("export missing employee row: %s", export.Body.String())
	}
	decode(t, a.do(http.MethodGet, "/api/v1/exports?format=docx", token, nil), http.StatusBadRequest, nil)

	var events []struct {
		Action     string `json:"action"`
		EntityType string `json:"entityType"`
	}
	decode(t, a.do(http.MethodGet, "/api/v1/audit/events?entityType=employee", token, nil), http.StatusOK, &events)
	if len(events) != 1 || events[0].Action != "create" {
		t.Fatalf("unexpected employee audit trail: %+v", events)
	}
	csvExport := a.do(http.MethodGet, "/api/v1/audit/events/export", token, nil)
	if csvExport.Code != http.StatusOK || !strings.HasPrefix(csvExport.Body.String(), "created_at,") {
		t.Fatalf("unexpected audit export: %d %s", csvExport.Code, csvExport.Body.String())
	}

	var march struct {
		ID string `json:"id"`
	}
	decode(t, a.do(http.MethodPost, "/api/v1/evaluations", token, map[string]any{"employeeId": employeeID, "date": "2025-03-10", "scores": map[string]float64{"Ética": 7}}), http.StatusCreated, &march)
	ids := []string{created.ID, march.ID}

	var bulk map[string]int
	decode(t, a.do(http.MethodPost, "/api/v1/evaluations/bulk/level", token, map[string]any{"ids": ids, "level": "tático"}), http.StatusOK, &bulk)
	if bulk["updated"] != 2 {
		t.Fatalf("unexpected bulk result: %+v", bulk)
	}
	for _, id := range ids {
		var got struct {
			Level string `json:"level"`
		}
		decode(t, a.do(http.MethodGet, "/api/v1/evaluations/"+id, token, nil), http.StatusOK, &got)
		if got.Level != "tactical" {
			t.Fatalf("evaluation %s: expected tactical, got %q", id, got.Level)
		}
	}
	decode(t, a.do(http.MethodPost, "/api/v1/evaluations/bulk/delete", token, map[string]any{"ids": []string{}}), http.StatusBadRequest, nil)
	decode(t, a.do(http.MethodPost, "/api/v1/evaluations/bulk/delete", token, map[string]any{"ids": ids}), http.StatusOK, &bulk)
	if bulk["deleted"] != 2 {
		t.Fatalf("unexpected bulk delete: %+v", bulk)
	}
}

func TestImportAndCatalog(t *testing.T) {
	a := newAPITest(t)
	token := a.adminToken()

	var report struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}
	rec := a.upload(http.MethodPost, "/api/v1/imports", token, "file", "setores.csv", []byte("Nome,Descrição\nVendas,Comercial\nRH,\n,sem nome\n"), map[string]string{"target": "sectors"})
	decode(t, rec, http.StatusOK, &report)
	if report.Imported != 2 || report.Skipped != 1 {
		t.Fatalf("unexpected import report: %+v", report)
	}

	var sectors []map[string]any
	decode(t, a.do(http.MethodGet, "/api/v1/sectors", token, nil), http.StatusOK, &sectors)
	if len(sectors) != 2 {
		t.Fatalf("expected 2 sectors, got %d", len(sectors))
	}
	env := decode(t, a.do(http.MethodPost, "/api/v1/sectors", token, map[string]string{"name": "vendas"}), http.StatusConflict, nil)
	if env.Error.Code != "duplicate_name" {
		t.Fatalf("expected duplicate_name, got %s", env.Error.Code)
	}

	rec = a.upload(http.MethodPost, "/api/v1/imports", token, "file", "setores.txt", []byte("Nome\nX\n"), map[string]string{"target": "sectors"})
	decode(t, rec, http.StatusBadRequest, nil)
	rec = a.upload(http.MethodPost, "/api/v1/imports", token, "file", "setores.csv", []byte("Nome\nX\n"), map[string]string{"target": "payroll"})
	decode(t, rec, http.StatusBadRequest, nil)

	var criteria []map[string]any
	decode(t, a.do(http.MethodGet, "/api/v1/criteria?level=operacional", token, nil), http.StatusOK, &criteria)
	if len(criteria) != 2 {
		t.Fatalf("expected the 2 seeded operational criteria, got %d", len(criteria))
	}

	var goal map[string]any
	target := 8.0
	decode(t, a.do(http.MethodPost, "/api/v1/goals", token, map[string]any{"sector": "Vendas", "target": target}), http.StatusCreated, &goal)
	var resolution struct {
		Target float64 `json:"target"`
		Scope  string  `json:"scope"`
	}
	decode(t, a.do(http.MethodGet, "/api/v1/goals/resolve?sector=Vendas&role=Analista", token, nil), http.StatusOK, &resolution)
	if resolution.Target != 8 {
		t.Fatalf("unexpected resolution: %+v", resolution)
	}
	decode(t, a.do(http.MethodGet, "/api/v1/goals/resolve?sector=RH", token, nil), http.StatusOK, &resolution)
	if resolution.Target != 9 {
		t.Fatalf("expected default target, got %+v", resolution)
	}
}

func TestRolePermissions(t *testing.T) {
	a := newAPITest(t)
	admin := a.adminToken()

	decode(t, a.do(http.MethodPost, "/api/v1/users", admin, map[string]any{
		"email":      "viewer@example.com",
		"name":       "Vera",
		"password":   "viewer-pass-1",
		"role":       "viewer",
		"companyIds": []string{a.companyID},
	}), http.StatusCreated, nil)
	env := decode(t, a.do(http.MethodPost, "/api/v1/users", admin, map[string]any{
		"email":    "viewer@example.com",
		"name":     "Vera",
		"password": "viewer-pass-1",
		"role":     "viewer",
	}), http.StatusConflict, nil)
	if env.Error.Code != "user_exists" {
		t.Fatalf("expected user_exists, got %s", env.Error.Code)
	}

	viewer, companyID := a.login("viewer@example.com", "viewer-pass-1")
	if companyID != a.companyID {
		t.Fatalf("single membership should preselect the company, got %q", companyID)
	}
	decode(t, a.do(http.MethodGet, "/api/v1/employees", viewer, nil), http.StatusOK, nil)
	decode(t, a.do(http.MethodGet, "/api/v1/analytics/dashboard", viewer, nil), http.StatusOK, nil)
	env = decode(t, a.do(http.MethodPost, "/api/v1/employees", viewer, map[string]string{"name": "Bruno"}), http.StatusForbidden, nil)
	if env.Error.Code != "forbidden" {
		t.Fatalf("expected forbidden, got %s", env.Error.Code)
	}
	decode(t, a.do(http.MethodGet, "/api/v1/companies", viewer, nil), http.StatusForbidden, nil)
	decode(t, a.do(http.MethodGet, "/api/v1/users", viewer, nil), http.StatusForbidden, nil)

	var companies []map[string]any
	decode(t, a.do(http.MethodGet, "/api/v1/companies", admin, nil), http.StatusOK, &companies)
	if len(companies) != 1 {
		t.Fatalf("expected 1 company, got %d", len(companies))
	}
}

func TestEmployeePhoto(t *testing.T) {
	a := newAPITest(t)
	token := a.adminToken()

	var employee struct {
		ID string `json:"id"`
	}
	decode(t, a.do(http.MethodPost, "/api/v1/employees", token, map[string]string{"name": "Carla"}), http.StatusCreated, &employee)

	decode(t, a.do(http.MethodGet, "/api/v1/employees/"+employee.ID+"/photo", token, nil), http.StatusNotFound, nil)

	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for x := 0; x < 200; x++ {
		for y := 0; y < 100; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	rec := a.upload(http.MethodPut, "/api/v1/employees/"+employee.ID+"/photo", token, "photo", "carla.png", raw.Bytes(), nil)
	var updated struct {
		PhotoKey string `json:"photoKey"`
	}
	decode(t, rec, http.StatusOK, &updated)
	if !strings.HasSuffix(updated.PhotoKey, "/photo.jpg") {
		t.Fatalf("unexpected photo key %q", updated.PhotoKey)
	}

	photo := a.do(http.MethodGet, "/api/v1/employees/"+employee.ID+"/photo", token, nil)
	if photo.Code != http.StatusOK || photo.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("unexpected photo response: %d %v", photo.Code, photo.Header())
	}
	decoded, _, err := image.Decode(bytes.NewReader(photo.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode stored photo: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() > 64 || b.Dy() > 64 {
		t.Fatalf("photo was not downscaled: %v", b)
	}

	rec = a.upload(http.MethodPut, "/api/v1/employees/"+employee.ID+"/photo", token, "photo", "x.png", []byte("not an image"), nil)
	decode(t, rec, http.StatusBadRequest, nil)
}
