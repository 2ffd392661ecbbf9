package session

import "context"

// contextKey is a private type for context keys.
type contextKey int

const (
	sessionContextKey contextKey = iota
)

// WithSession adds the session to the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext retrieves the session from the context.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey).(*Session); ok {
		return s
	}
	return nil
}
