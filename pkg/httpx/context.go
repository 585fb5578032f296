package httpx

import (
	"context"

	"github.com/laptruong-hub/iam-service/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySubject     ctxKey = "subject"
	CtxKeyAuthorities ctxKey = "authorities"
	CtxKeyClaims      ctxKey = "claims"
)

// ContextWithIdentity attaches the verified identity to the request context.
func ContextWithIdentity(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyAuthorities, c.Authorities)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// SubjectFromContext returns the authenticated principal's subject (email),
// or "" when the request is unauthenticated.
func SubjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySubject).(string); ok {
		return v
	}
	return ""
}

// AuthoritiesFromContext returns the resolved authority set of the request,
// or nil when unauthenticated.
func AuthoritiesFromContext(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyAuthorities).([]string); ok {
		return v
	}
	return nil
}

// ClaimsFromContext returns the full verified claims, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}
