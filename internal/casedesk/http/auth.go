package http

import (
	"net/http"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/service"
	"github.com/aussiebroadwan/casedesk/pkg/casesdk"
	"github.com/aussiebroadwan/casedesk/pkg/httpx"
)

type AuthHandler struct {
	TokenService *service.TokenService
	UserService  *service.UserService
}

// HandleLogin exchanges credentials for a bearer token.
//
//	@Summary		Log in
//	@Description	Verifies the credentials and issues an HS256 token carrying a single role. If role is given the user must hold it; otherwise the highest held role is used.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		casesdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	casesdk.LoginResponse
//	@Failure		400		{object}	casesdk.APIError	"Malformed body or missing fields"
//	@Failure		401		{object}	casesdk.APIError	"Invalid username or password"
//	@Failure		403		{object}	casesdk.APIError	"Requested role not held"
//	@Failure		429		{object}	casesdk.APIError	"Rate limited"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	tok, err := h.TokenService.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, casesdk.LoginResponse{
		Token:     tok.Raw,
		ExpiresAt: tok.ExpiresAt,
	})
}

// HandleRegister creates a user holding the User role.
//
//	@Summary		Register
//	@Description	Creates an account with the User role. Passwords need upper and lower case letters, a digit and a symbol.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		casesdk.RegisterRequest	true	"New account"
//	@Success		200		{object}	casesdk.User
//	@Failure		400		{object}	casesdk.APIError	"Validation failed or username taken"
//	@Failure		429		{object}	casesdk.APIError	"Rate limited"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, err := h.UserService.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, casesdk.User{
		ID:       u.ID,
		Username: u.Username,
		Role:     string(domain.RoleUser),
	})
}

// HandleRegisterWithRole lets an Admin create a user with any role.
//
//	@Summary		Register a user with a role
//	@Description	Admin only. Creates an account holding the given role and records it in the audit log.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		casesdk.RegisterWithRoleRequest	true	"New account and role"
//	@Success		200		{object}	casesdk.User
//	@Failure		400		{object}	casesdk.APIError	"Validation failed or username taken"
//	@Failure		401		{object}	casesdk.APIError	"Missing or invalid token"
//	@Failure		403		{object}	casesdk.APIError	"Caller is not an Admin"
//	@Security		BearerAuth
//	@Router			/auth/register-with-role [post].
func (h *AuthHandler) HandleRegisterWithRole(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	var in service.RegisterWithRoleInput
	if !decodeBody(w, r, p, policy.RegisterWithRole, &in) {
		return
	}

	u, err := h.UserService.RegisterWithRole(r.Context(), p, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	role, _ := domain.ParseRoleName(in.Role)
	httpx.WriteJSON(w, http.StatusOK, casesdk.User{
		ID:       u.ID,
		Username: u.Username,
		Role:     string(role),
	})
}
