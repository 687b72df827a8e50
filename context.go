package trackpro

import "context"

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "trackpro_request_id"
	ctxKeySession   ctxKey = "trackpro_session"
)

// WithRequestID stores the request ID propagated as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// WithSession stores a session snapshot in the context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext extracts the session snapshot from the context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	v, ok := ctx.Value(ctxKeySession).(Session)
	return v, ok
}
