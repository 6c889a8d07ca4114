package auth

import "context"

type sessionKey struct{}

// Session is what the request middleware resolved for the caller.
type Session struct {
	Identity *Identity
	Claims   *Claims
}

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func SessionFromContext(ctx context.Context) Session {
	session, _ := ctx.Value(sessionKey{}).(Session)
	return session
}

// IdentityFromContext returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	return SessionFromContext(ctx).Identity
}
