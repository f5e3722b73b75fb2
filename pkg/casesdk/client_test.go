package casesdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/casedesk/pkg/casesdk"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *casesdk.SDKClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return casesdk.NewSDKClient(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginAndListCases(t *testing.T) {
	expires := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req casesdk.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "alice", req.Username)
		require.Equal(t, "SupportStaff", req.Role)
		writeJSON(w, http.StatusOK, casesdk.LoginResponse{Token: "tok", ExpiresAt: expires})
	})
	mux.HandleFunc("GET /cases", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "Closed", r.URL.Query().Get("status"))
		require.Equal(t, "vpn drop", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, []casesdk.Case{{ID: "c1", Status: "Closed", CreatedByID: "u1"}})
	})

	c := newTestServer(t, mux)
	ctx := context.Background()

	sess, err := c.Login(ctx, "alice", "pw", "SupportStaff")
	require.NoError(t, err)
	require.Equal(t, "tok", sess.Token())
	require.True(t, expires.Equal(sess.ExpiresAt()))

	cases, err := sess.ListCases(ctx, casesdk.ListCasesOptions{Status: "Closed", Search: "vpn drop"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	require.Equal(t, "u1", cases[0].CreatedByID)
	require.Nil(t, cases[0].ClosedAt)
}

func TestErrorResponses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /cases/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "mine":
			casesdk.ErrForbidden.WriteError(w)
		case "gone":
			casesdk.ErrNotFound.WriteError(w)
		default:
			casesdk.NewValidationError(casesdk.FieldError{Field: "status", Message: "must be Open or Closed"}).WriteError(w)
		}
	})
	mux.HandleFunc("GET /whoami", func(w http.ResponseWriter, r *http.Request) {
		casesdk.ErrUnauthorized.WriteError(w)
	})
	mux.HandleFunc("GET /admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream timeout", http.StatusBadGateway)
	})

	c := newTestServer(t, mux)
	ctx := context.Background()
	sess := c.NewSession("tok", time.Now().Add(time.Hour))

	_, err := sess.UpdateCaseStatus(ctx, "mine", "Closed")
	require.ErrorIs(t, err, casesdk.ErrForbidden)

	_, err = sess.UpdateCaseStatus(ctx, "gone", "Closed")
	require.ErrorIs(t, err, casesdk.ErrNotFound)

	_, err = sess.UpdateCaseStatus(ctx, "other", "Pending")
	var apiErr *casesdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, []casesdk.FieldError{{Field: "status", Message: "must be Open or Closed"}}, apiErr.Fields)

	_, err = sess.WhoAmI(ctx)
	require.ErrorIs(t, err, casesdk.ErrUnauthorized)

	_, err = sess.Dashboard(ctx)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, casesdk.ErrorCodeServerError, apiErr.Code)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestWriteErrorSetsBearerChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	casesdk.ErrUnauthorized.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unauthorized", body["error"])
	require.NotContains(t, body, "fields")

	rec = httptest.NewRecorder()
	casesdk.ErrForbidden.WriteError(rec)
	require.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestAuditLogLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/audit", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		target := "c1"
		writeJSON(w, http.StatusOK, []casesdk.AuditEntry{{ID: "a1", Action: "UpdatedStatus", TargetCaseID: &target, Detail: "Open → Closed"}})
	})

	c := newTestServer(t, mux)
	entries, err := c.NewSession("tok", time.Time{}).AuditLog(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Open → Closed", entries[0].Detail)
	require.Equal(t, "c1", *entries[0].TargetCaseID)
}
