package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"perfeval/internal/platform/requestctx"
	"perfeval/internal/transport/http/api"
)

// DecodeJSON reads one JSON value into dst and writes the error envelope
// itself when the body is unusable. It returns false in that case.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		api.FailCode(w, r, http.StatusRequestEntityTooLarge, "request_too_large")
		return false
	}
	if errors.Is(err, io.EOF) {
		err = errors.New("empty body")
	}
	locale := requestctx.GetLocale(r.Context())
	api.FailWithDetails(w, http.StatusBadRequest, "invalid_payload",
		api.Message(locale, "invalid_payload", "invalid request payload"),
		map[string]string{"reason": err.Error()}, requestctx.GetRequestID(r.Context()))
	return false
}

// ClientIP prefers the first X-Forwarded-For hop, then the socket peer.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func QueryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "1", "true", "yes", "sim":
		return true
	}
	return false
}
