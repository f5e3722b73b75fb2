package casesdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the casedesk API.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges credentials for a token. role may be empty, in which case
// the server picks the highest role the user holds.
func (c *SDKClient) Login(ctx context.Context, username, password, role string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", LoginRequest{
		Username: username,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return c.NewSession(out.Token, out.ExpiresAt), nil
}

// Register creates a user holding the User role.
func (c *SDKClient) Register(ctx context.Context, username, password string) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/ping", "", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// Livez reports whether the process is up.
func (c *SDKClient) Livez(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// Readyz reports whether the service can reach its database.
func (c *SDKClient) Readyz(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var out HealthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
