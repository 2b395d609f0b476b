package middleware

import (
	"net/http"
	"strings"
)

// BodyLimit caps request bodies. Multipart uploads (imports, photos) get
// uploadBytes instead of maxBytes.
func BodyLimit(maxBytes, uploadBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				limit := maxBytes
				if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") && uploadBytes > limit {
					limit = uploadBytes
				}
				if limit > 0 {
					r.Body = http.MaxBytesReader(w, r.Body, limit)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
