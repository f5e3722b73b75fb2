package httpx

import (
	"context"

	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyPrincipal ctxKey = "principal"
)

// WithPrincipal stores p on ctx. The subject id is also stored under
// CtxKeyUserID for the rate limiter's key extractors.
func WithPrincipal(ctx context.Context, p jwtx.Principal) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	if p.Authenticated {
		ctx = context.WithValue(ctx, CtxKeyUserID, p.SubjectID)
	}
	return ctx
}

// PrincipalFromContext returns the request principal, or Anonymous when
// AuthnMiddleware did not run.
func PrincipalFromContext(ctx context.Context) jwtx.Principal {
	if p, ok := ctx.Value(CtxKeyPrincipal).(jwtx.Principal); ok {
		return p
	}
	return jwtx.Anonymous()
}
