package middleware

import (
	"context"
	"net/http"
	"strings"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/shared"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// Auth attaches the token's user to the context. Requests without a valid
// bearer token pass through anonymous; RequireUser rejects them.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), auth.UserContext{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
				Role:     claims.Role,
				Name:     claims.Name,
			})))
		})
	}
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.FailCode(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCompany rejects tokens issued before a company was selected.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := GetUser(r.Context()); !ok || user.TenantID == "" {
			api.FailCode(w, r, http.StatusBadRequest, "company_required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Session is the per-request tenant session handed to domain services.
func Session(r *http.Request) tenant.Session {
	user, _ := GetUser(r.Context())
	return tenant.Session{
		CompanyID: user.TenantID,
		UserID:    user.UserID,
		Role:      user.Role,
		RequestID: GetRequestID(r.Context()),
		IP:        shared.ClientIP(r),
	}
}
