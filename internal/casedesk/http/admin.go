package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/service"
	"github.com/aussiebroadwan/casedesk/pkg/casesdk"
	"github.com/aussiebroadwan/casedesk/pkg/httpx"
)

type AdminHandler struct {
	DashboardService *service.DashboardService
	AuditService     *service.AuditService
}

// HandleDashboard returns case statistics.
//
//	@Summary		Dashboard summary
//	@Description	Admin only. Open and closed case counts and the mean resolution time in hours.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	casesdk.DashboardSummary
//	@Failure		401	{object}	casesdk.APIError	"Missing or invalid token"
//	@Failure		403	{object}	casesdk.APIError	"Caller is not an Admin"
//	@Security		BearerAuth
//	@Router			/admin/dashboard [get].
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	s, err := h.DashboardService.Summary(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, casesdk.DashboardSummary{
		OpenCases:              s.OpenCases,
		ClosedCases:            s.ClosedCases,
		AvgResolutionTimeHours: s.AvgResolutionTimeHours,
		AgentsOnline:           s.AgentsOnline,
	})
}

// HandleAudit returns the newest audit entries.
//
//	@Summary		Read the audit log
//	@Description	Admin only. Newest first. Reading the log is itself audited.
//	@Tags			Admin
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries (default 100, capped at 1000)"
//	@Success		200		{array}		casesdk.AuditEntry
//	@Failure		400		{object}	casesdk.APIError	"Bad limit"
//	@Failure		401		{object}	casesdk.APIError	"Missing or invalid token"
//	@Failure		403		{object}	casesdk.APIError	"Caller is not an Admin"
//	@Security		BearerAuth
//	@Router			/admin/audit [get].
func (h *AdminHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = -1
		}
		limit = n
	}

	entries, err := h.AuditService.List(r.Context(), p, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAuditEntries(entries))
}
