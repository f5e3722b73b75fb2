package http

import (
	"net/http"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/service"
	"github.com/aussiebroadwan/casedesk/pkg/httpx"
)

type CasesHandler struct {
	CaseService *service.CaseService
}

// HandleList lists the cases visible to the caller.
//
//	@Summary		List cases
//	@Description	Users see only the cases they created. SupportStaff and Admin see every case, and each such read is audited. Filters narrow the visible set and never widen it.
//	@Tags			Cases
//	@Produce		json
//	@Param			status	query		string	false	"Open or Closed, any letter case"
//	@Param			search	query		string	false	"Case-insensitive substring of title or description"
//	@Success		200		{array}		casesdk.Case
//	@Failure		400		{object}	casesdk.APIError	"Unknown status"
//	@Failure		401		{object}	casesdk.APIError	"Missing or invalid token"
//	@Failure		403		{object}	casesdk.APIError	"Unrecognised role"
//	@Security		BearerAuth
//	@Router			/cases [get].
func (h *CasesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())
	q := r.URL.Query()

	cases, err := h.CaseService.List(r.Context(), p, service.ListQuery{
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toCases(cases))
}

// HandleCreate opens a case owned by the caller.
//
//	@Summary		Create a case
//	@Description	Any recognised role may open a case. The case always starts Open and is owned by the caller, whatever the body says.
//	@Tags			Cases
//	@Accept			json
//	@Produce		json
//	@Param			request	body		casesdk.CreateCaseRequest	true	"Case"
//	@Success		201		{object}	casesdk.Case
//	@Failure		400		{object}	casesdk.APIError	"Validation failed"
//	@Failure		401		{object}	casesdk.APIError	"Missing or invalid token"
//	@Failure		403		{object}	casesdk.APIError	"Unrecognised role"
//	@Security		BearerAuth
//	@Router			/cases [post].
func (h *CasesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	var in service.CreateCaseInput
	if !decodeBody(w, r, p, policy.CreateCase, &in) {
		return
	}

	c, err := h.CaseService.Create(r.Context(), p, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/cases/"+c.ID)
	httpx.WriteJSON(w, http.StatusCreated, toCase(c))
}

// HandleUpdateStatus opens or closes a case.
//
//	@Summary		Change case status
//	@Description	SupportStaff and Admin only; owning the case grants nothing. Closing sets closedAt, reopening clears it. The change and its audit entry are committed together. Requesting the current status is a no-op.
//	@Tags			Cases
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Case ID"
//	@Param			request	body		casesdk.UpdateCaseStatusRequest	true	"New status"
//	@Success		200		{object}	casesdk.Case
//	@Failure		400		{object}	casesdk.APIError	"Unknown status"
//	@Failure		401		{object}	casesdk.APIError	"Missing or invalid token"
//	@Failure		403		{object}	casesdk.APIError	"Role may not change status"
//	@Failure		404		{object}	casesdk.APIError	"No such case"
//	@Failure		500		{object}	casesdk.APIError	"Status or audit write failed; nothing was changed"
//	@Security		BearerAuth
//	@Router			/cases/{id} [patch].
func (h *CasesHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	var in service.UpdateStatusInput
	if !decodeBody(w, r, p, policy.UpdateCaseStatus, &in) {
		return
	}

	c, err := h.CaseService.UpdateStatus(r.Context(), p, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toCase(c))
}
