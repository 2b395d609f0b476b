package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"perfeval/internal/platform/docstore"
	"perfeval/internal/transport/http/api"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

const IdempotencyHeader = "Idempotency-Key"

// StoredResponse is the replayable outcome of a request.
type StoredResponse struct {
	RequestHash string
	Status      int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps one response per (company, user, endpoint, key) in
// the idempotency_keys collection.
type IdempotencyStore struct {
	docs docstore.Store
}

func NewIdempotencyStore(docs docstore.Store) *IdempotencyStore {
	return &IdempotencyStore{docs: docs}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func recordID(tenantID, userID, endpoint, key string) string {
	return RequestHash([]byte(tenantID + "\x00" + userID + "\x00" + endpoint + "\x00" + key))
}

func (s *IdempotencyStore) Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (StoredResponse, bool, error) {
	if s == nil || s.docs == nil {
		return StoredResponse{}, false, nil
	}
	doc, err := s.docs.Get(ctx, docstore.IdempotencyKey, recordID(tenantID, userID, endpoint, key))
	if errors.Is(err, docstore.ErrNotFound) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	stored := StoredResponse{
		RequestHash: doc.String("requestHash"),
		ContentType: doc.String("contentType"),
		Body:        []byte(doc.String("body")),
	}
	if status, ok := doc.Data["status"].(float64); ok {
		stored.Status = int(status)
	}
	if stored.RequestHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

// Save records the response. A concurrent save of the same request is not
// an error; a different request under the same key is.
func (s *IdempotencyStore) Save(ctx context.Context, tenantID, userID, endpoint, key string, resp StoredResponse) error {
	if s == nil || s.docs == nil {
		return nil
	}
	id := recordID(tenantID, userID, endpoint, key)
	err := s.docs.Batch(ctx, []docstore.Mutation{{
		Kind:       docstore.MutationCreate,
		Collection: docstore.IdempotencyKey,
		ID:         id,
		Data: map[string]any{
			docstore.FieldTenant: tenantID,
			"userId":             userID,
			"endpoint":           endpoint,
			"key":                key,
			"requestHash":        resp.RequestHash,
			"status":             resp.Status,
			"contentType":        resp.ContentType,
			"body":               string(resp.Body),
		},
	}})
	if !errors.Is(err, docstore.ErrAlreadyExists) {
		return err
	}
	if _, _, err := s.Check(ctx, tenantID, userID, endpoint, key, resp.RequestHash); err != nil {
		return err
	}
	return nil
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotency replays the stored response when a mutating request repeats
// its Idempotency-Key with the same body, and rejects the key when the body
// differs. Requests without the header are not tracked. Server errors are
// not stored so the client can retry them.
func Idempotency(store *IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			user, _ := GetUser(r.Context())

			raw, err := io.ReadAll(r.Body)
			if err != nil {
				api.FailCode(w, r, http.StatusRequestEntityTooLarge, "request_too_large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))
			endpoint := r.Method + " " + r.URL.Path
			hash := RequestHash(append([]byte(endpoint+"\n"+r.URL.RawQuery+"\n"), raw...))

			stored, found, err := store.Check(r.Context(), user.TenantID, user.UserID, endpoint, key, hash)
			if errors.Is(err, ErrIdempotencyConflict) {
				api.FailCode(w, r, http.StatusConflict, "idempotency_conflict")
				return
			}
			if err != nil {
				api.FailError(w, r, err)
				return
			}
			if found {
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.Header().Set("Idempotent-Replay", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			if capture.status == 0 || capture.status >= http.StatusInternalServerError {
				return
			}
			resp := StoredResponse{
				RequestHash: hash,
				Status:      capture.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}
			if err := store.Save(r.Context(), user.TenantID, user.UserID, endpoint, key, resp); err != nil {
				slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
			}
		})
	}
}
