package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/service"
	"github.com/aussiebroadwan/casedesk/pkg/casesdk"
	"github.com/aussiebroadwan/casedesk/pkg/httpx"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

// writeServiceError is the single place service errors become HTTP
// responses. Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		fields := make([]casesdk.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = casesdk.FieldError{Field: f.Field, Message: f.Message}
		}
		casesdk.NewValidationError(fields...).WriteError(w)
	case errors.Is(err, httpx.ErrBadJSON):
		casesdk.ErrBadRequest.WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		casesdk.ErrUnauthorized.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		casesdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		casesdk.ErrForbidden.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		casesdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrUsernameTaken):
		casesdk.NewValidationError(casesdk.FieldError{Field: "username", Message: "is already taken"}).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		casesdk.ErrServerError.WriteError(w)
	}
}

// decodeBody decodes the request body into dst and reports success. When the
// body is bad, a caller the policy would refuse anyway gets the refusal
// instead of a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, p jwtx.Principal, action policy.Action, dst any) bool {
	err := httpx.DecodeJSON(w, r, dst)
	if err == nil {
		return true
	}

	switch policy.Authorize(p, action).Effect {
	case policy.DenyUnauthorized:
		err = service.ErrUnauthorized
	case policy.DenyForbidden:
		err = service.ErrForbidden
	}
	writeServiceError(w, r, err)
	return false
}
