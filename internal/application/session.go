package application

import "context"

type sessionKey struct{}

// Session carries per-request state through context.Context so tree nodes
// never read process-wide globals. The composition root builds one per host
// request.
type Session struct {
	RequestID string

	// ConnectedDatabase is the FullID of the database the host is connected
	// to, or "" when none is.
	ConnectedDatabase string
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the Session stored in ctx, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
