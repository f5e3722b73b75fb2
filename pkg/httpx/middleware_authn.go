package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

// AuthnMiddleware resolves the bearer token into a Principal and attaches it
// to the request context. It never rejects a request: a missing or invalid
// token produces an anonymous principal and the handler decides what that
// means. now may be nil, in which case the wall clock is used.
func AuthnMiddleware(v *jwtx.Validator, now func() time.Time) Middleware {
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			p, err := v.Validate(BearerToken(r), now())
			switch {
			case err == nil:
				log = log.With("subject", p.SubjectID, "role", p.Role)
				ctx = slogx.WithContext(ctx, log)
			case errors.Is(err, jwtx.ErrMissingToken):
				// anonymous request
			default:
				log.Warn("bearer token rejected", "err", err)
			}

			ctx = WithPrincipal(ctx, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively; anything else yields "".
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
