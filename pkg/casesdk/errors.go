package casesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/casedesk/pkg/httpx"
)

const (
	ErrorCodeUnauthorized     = "unauthorized"
	ErrorCodeForbidden        = "forbidden"
	ErrorCodeValidationFailed = "validation_failed"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeRateLimited      = "rate_limited"
	ErrorCodeServerError      = "server_error"
)

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the JSON error body every endpoint returns. The server writes
// it with WriteError and the SDK decodes it back into the same type.
type APIError struct {
	StatusCode  int          `json:"-"`
	Code        string       `json:"error"`
	Description string       `json:"error_description"`
	Fields      []FieldError `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on the error code, so errors.Is(err, ErrForbidden) holds for
// any forbidden response whatever its description.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WriteError writes e as the response. Unauthorized responses also carry a
// Bearer challenge.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	if e.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="casedesk"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

var (
	ErrUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "a valid bearer token is required",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "invalid username or password",
	}

	ErrForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "your role does not allow this action",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "case not found",
	}

	ErrBadRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidationFailed,
		Description: "the request body is malformed",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewValidationError builds a 400 listing the rejected fields.
func NewValidationError(fields ...FieldError) *APIError {
	return &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidationFailed,
		Description: "one or more fields are invalid",
		Fields:      fields,
	}
}
