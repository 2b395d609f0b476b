package shared

import (
	"net/http"
	"strconv"
	"strings"
)

type Pagination struct {
	Cursor string
	Limit  int
}

// ParsePagination reads ?cursor= and ?limit=. The limit is clamped to
// [1, maxLimit]; the cursor is passed through opaque.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")), Limit: limit}
}
