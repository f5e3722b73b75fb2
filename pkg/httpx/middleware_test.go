package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/casedesk/pkg/httpx"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var secret = []byte("an-http-test-secret-of-32-bytes!")

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"Bearer abc":         "abc",
		"bearer abc":         "abc",
		"BEARER   abc  ":     "abc",
		"Basic dXNlcjpwdw==": "",
		"Bearer":             "",
	}

	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		require.Equal(t, want, httpx.BearerToken(req), "header %q", header)
	}
}

func TestAuthnMiddleware(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	issuer, err := jwtx.NewIssuer(jwtx.IssuerOptions{Secret: secret, Issuer: "casedesk", Audience: "casedesk-api"})
	require.NoError(t, err)
	validator, err := jwtx.NewValidator(jwtx.ValidatorOptions{Secret: secret, Issuer: "casedesk", Audience: "casedesk-api"})
	require.NoError(t, err)

	var seen jwtx.Principal
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(validator, clock))

	serve := func(authz string) int {
		seen = jwtx.Principal{SubjectID: "stale"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("valid token", func(t *testing.T) {
		tok, err := issuer.Issue("u-1", "Admin", now)
		require.NoError(t, err)

		require.Equal(t, http.StatusNoContent, serve("Bearer "+tok.Raw))
		require.Equal(t, jwtx.Principal{SubjectID: "u-1", Role: "Admin", Authenticated: true}, seen)
	})

	t.Run("no header passes through anonymous", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, serve(""))
		require.Equal(t, jwtx.Anonymous(), seen)
	})

	t.Run("expired token passes through anonymous", func(t *testing.T) {
		tok, err := issuer.Issue("u-1", "Admin", now.Add(-3*time.Hour))
		require.NoError(t, err)

		require.Equal(t, http.StatusNoContent, serve("Bearer "+tok.Raw))
		require.False(t, seen.Authenticated)
	})

	t.Run("garbage token passes through anonymous", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, serve("Bearer "+strings.Repeat("x", 40)))
		require.Equal(t, jwtx.Anonymous(), seen)
	})
}

func TestPrincipalFromContextDefaultsToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, jwtx.Anonymous(), httpx.PrincipalFromContext(req.Context()))
}

func TestSecureHeaders(t *testing.T) {
	h := httpx.Chain(okHandler, httpx.SecureHeaders(true))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"printer"}`))
	require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst))
	require.Equal(t, "printer", dst.Title)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	require.ErrorIs(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst), httpx.ErrBadJSON)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"a"}{"title":"b"}`))
	require.ErrorIs(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst), httpx.ErrBadJSON)
}
