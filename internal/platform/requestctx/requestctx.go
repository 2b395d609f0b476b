package requestctx

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	localeKey    ctxKey = "locale"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithLocale stores the negotiated response locale (a BCP 47 tag).
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey, locale)
}

func GetLocale(ctx context.Context) string {
	if value, ok := ctx.Value(localeKey).(string); ok {
		return value
	}
	return ""
}
