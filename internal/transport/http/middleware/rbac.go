package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"perfeval/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.FailCode(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.Role, permission)
			if err != nil {
				slog.Error("permission check failed", "permission", permission, "role", user.Role, "err", err)
				api.FailCode(w, r, http.StatusInternalServerError, "internal_error")
				return
			}
			if !allowed {
				api.FailCode(w, r, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
