package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*keyedLimiter)

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(k *keyedLimiter) {
		if fn != nil {
			k.keyFn = fn
		}
	}
}

// RateLimit allows limit requests per window for each caller. Callers are
// keyed by user (tenant + id) when authenticated and by client IP otherwise.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	k := newKeyedLimiter(limit, window, actorOrIPKey)
	for _, opt := range opts {
		opt(k)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if k.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter budgets on top of RateLimit for
// credential and session routes (a quarter of base, by IP and by email) and
// for bulk or file mutations (half of base, by actor).
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	authLimit := max(baseLimit/4, 1)
	byIP := newKeyedLimiter(authLimit, window, clientIPKey)
	byEmail := newKeyedLimiter(authLimit, window, AuthEmailOrIPKey("email"))
	byActor := newKeyedLimiter(max(baseLimit/2, 1), window, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch routeClass(r) {
			case classCredential:
				if !byIP.admit(w, r) || !byEmail.admit(w, r) {
					return
				}
			case classBulk:
				if !byActor.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthEmailOrIPKey keys login attempts by the email in the JSON body so one
// account cannot be brute-forced from many addresses.
func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		if email := peekJSONString(r, field); email != "" {
			return "email:" + strings.ToLower(email)
		}
		return clientIPKey(r)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

const maxTrackedKeys = 10000

// keyedLimiter holds one token bucket per caller key. Buckets refill at
// limit tokens per window and never hold more than limit.
type keyedLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	refill  rate.Limit
	keyFn   RateLimitKeyFunc
	buckets map[string]*bucket
}

type bucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

func newKeyedLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc) *keyedLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	refill := rate.Inf
	if limit > 0 && window > 0 {
		refill = rate.Limit(float64(limit) / window.Seconds())
	}
	return &keyedLimiter{
		limit:   limit,
		window:  window,
		refill:  refill,
		keyFn:   keyFn,
		buckets: map[string]*bucket{},
	}
}

type decision struct {
	allowed   bool
	remaining int
	retry     time.Duration
	reset     time.Duration
}

func (k *keyedLimiter) take(key string, now time.Time) decision {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.buckets) >= maxTrackedKeys {
		k.evictIdle(now)
	}
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(k.refill, k.limit)}
		k.buckets[key] = b
	}
	b.seen = now

	d := decision{allowed: b.tokens.AllowN(now, 1)}
	if !d.allowed {
		res := b.tokens.ReserveN(now, 1)
		d.retry = res.DelayFrom(now)
		res.CancelAt(now)
	}
	left := b.tokens.TokensAt(now)
	d.remaining = max(int(math.Floor(left)), 0)
	if missing := float64(k.limit) - left; missing > 0 && k.refill != rate.Inf {
		d.reset = time.Duration(missing / float64(k.refill) * float64(time.Second))
	}
	return d
}

// evictIdle drops buckets untouched for a whole window; they would be full
// again anyway. Callers hold k.mu.
func (k *keyedLimiter) evictIdle(now time.Time) {
	for key, b := range k.buckets {
		if now.Sub(b.seen) >= k.window {
			delete(k.buckets, key)
		}
	}
}

func (k *keyedLimiter) admit(w http.ResponseWriter, r *http.Request) bool {
	if k.limit <= 0 {
		return true
	}
	key := k.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	d := k.take(key, time.Now())

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(k.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(ceilSeconds(d.reset)))
	if d.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(ceilSeconds(d.retry), 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", k.limit)
	api.FailCode(w, r, http.StatusTooManyRequests, "rate_limited")
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// peekJSONString reads one top-level string field from a JSON body and
// restores the body for the next handler.
func peekJSONString(r *http.Request, field string) string {
	if r == nil || r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

type rateClass int

const (
	classDefault rateClass = iota
	classCredential
	classBulk
)

var credentialRoutes = map[string]bool{
	"/auth/login":       true,
	"/auth/mfa/setup":   true,
	"/auth/mfa/enable":  true,
	"/auth/mfa/disable": true,
	"/session/company":  true,
}

var bulkRoutes = map[string]bool{
	"/imports":                 true,
	"/evaluations/bulk/delete": true,
	"/evaluations/bulk/level":  true,
	"/evaluations/backfill":    true,
	"/jobs/retention/run":      true,
}

func routeClass(r *http.Request) rateClass {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return classDefault
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case credentialRoutes[path]:
		return classCredential
	case bulkRoutes[path]:
		return classBulk
	case strings.HasPrefix(path, "/employees/") && strings.HasSuffix(path, "/photo"):
		return classBulk
	}
	return classDefault
}
