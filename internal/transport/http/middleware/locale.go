package middleware

import (
	"net/http"

	"perfeval/internal/platform/requestctx"
	"perfeval/internal/transport/http/api"
)

// Locale negotiates the message language from Accept-Language.
func Locale(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := api.MatchLocale(r.Header.Get("Accept-Language"), fallback)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLocale(r.Context(), locale)))
		})
	}
}
