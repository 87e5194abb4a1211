package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

type originContextKey struct{}

// ContextWithOrigin stores the request origin address in context so audit
// entries can record where a mutation came from.
func ContextWithOrigin(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, originContextKey{}, addr)
}

// OriginFromContext returns the request origin address, if any.
func OriginFromContext(ctx context.Context) string {
	addr, _ := ctx.Value(originContextKey{}).(string)
	return addr
}
