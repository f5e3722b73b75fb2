package casesdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Session holds a bearer token. Tokens cannot be refreshed; once ExpiresAt
// passes, log in again.
type Session struct {
	client    *SDKClient
	token     string
	expiresAt time.Time
}

// NewSession wraps an existing token, e.g. one issued to another process.
func (c *SDKClient) NewSession(token string, expiresAt time.Time) *Session {
	return &Session{client: c, token: token, expiresAt: expiresAt}
}

func (s *Session) Token() string        { return s.token }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

func (s *Session) do(ctx context.Context, method, path string, body, target any, expectedStatus int) error {
	resp, err := s.client.doRequest(ctx, method, path, s.token, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expectedStatus)
}

// ListCases returns the cases visible to this session's role.
func (s *Session) ListCases(ctx context.Context, opts ListCasesOptions) ([]Case, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}

	path := "/cases"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []Case
	if err := s.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) CreateCase(ctx context.Context, req CreateCaseRequest) (*Case, error) {
	var out Case
	if err := s.do(ctx, http.MethodPost, "/cases", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCaseStatus requires the SupportStaff or Admin role.
func (s *Session) UpdateCaseStatus(ctx context.Context, id, status string) (*Case, error) {
	var out Case
	path := "/cases/" + url.PathEscape(id)
	if err := s.do(ctx, http.MethodPatch, path, UpdateCaseStatusRequest{Status: status}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard requires the Admin role.
func (s *Session) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	var out DashboardSummary
	if err := s.do(ctx, http.MethodGet, "/admin/dashboard", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuditLog returns the newest entries first. A zero limit uses the server
// default. Requires the Admin role.
func (s *Session) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	path := "/admin/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out []AuditEntry
	if err := s.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterWithRole creates a user holding role. Requires the Admin role.
func (s *Session) RegisterWithRole(ctx context.Context, username, password, role string) (*User, error) {
	var out User
	req := RegisterWithRoleRequest{Username: username, Password: password, Role: role}
	if err := s.do(ctx, http.MethodPost, "/auth/register-with-role", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) WhoAmI(ctx context.Context) (*WhoAmIResponse, error) {
	var out WhoAmIResponse
	if err := s.do(ctx, http.MethodGet, "/whoami", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
