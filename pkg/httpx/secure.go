package httpx

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the standard hardening headers on every response. HSTS
// and the https redirect are only enabled outside development.
func SecureHeaders(isDevelopment bool) Middleware {
	s := secure.New(secure.Options{
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "no-referrer",
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:        isDevelopment,
	})

	return func(next http.Handler) http.Handler {
		return s.Handler(next)
	}
}
