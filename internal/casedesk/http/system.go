package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/service"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/pkg/casesdk"
	"github.com/aussiebroadwan/casedesk/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process is running.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	casesdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, casesdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	503 while the database is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	casesdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	casesdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &casesdk.HealthChecks{Database: "ok"}
		status, code := "ok", http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, casesdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

// PingHandler godoc
//
//	@Summary	Ping
//	@Tags		Health
//	@Produce	plain
//	@Success	200	{string}	string	"pong"
//	@Router		/ping [get].
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}

// WhoAmIHandler godoc
//
//	@Summary		Current principal
//	@Description	Echoes the subject and role the bearer token resolves to.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	casesdk.WhoAmIResponse
//	@Failure		401	{object}	casesdk.APIError	"Missing or invalid token"
//	@Security		BearerAuth
//	@Router			/whoami [get].
func WhoAmIHandler(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())
	if !p.Authenticated {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, casesdk.WhoAmIResponse{
		SubjectID:     p.SubjectID,
		Role:          p.Role,
		Authenticated: true,
	})
}
