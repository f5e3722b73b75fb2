package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

type TokenService struct {
	Users  *UserService
	Issuer *jwtx.Issuer
	Now    func() time.Time
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// Login verifies the credentials and issues a token carrying one role. A
// requested role is used only if the user holds it; otherwise the highest
// held role is chosen. A user with no roles gets an empty role claim, which
// every protected action rejects.
func (s *TokenService) Login(ctx context.Context, in LoginInput) (jwtx.Token, error) {
	l := slogx.FromContext(ctx)

	if err := validateStruct(in); err != nil {
		return jwtx.Token{}, err
	}

	u, err := s.Users.VerifyPassword(ctx, in.Username, in.Password)
	if err != nil {
		l.Info("login failed", slog.String("username", in.Username))
		return jwtx.Token{}, err
	}

	held, err := s.Users.RolesOf(ctx, u.ID)
	if err != nil {
		return jwtx.Token{}, err
	}

	role, err := effectiveRole(held, in.Role)
	if err != nil {
		l.Info("login role not held",
			slog.String("user_id", u.ID),
			slog.String("requested_role", in.Role),
		)
		return jwtx.Token{}, err
	}

	tok, err := s.Issuer.Issue(u.ID, string(role), now(s.Now))
	if err != nil {
		return jwtx.Token{}, err
	}

	l.Info("token issued", slog.String("user_id", u.ID), slog.String("role", string(role)))
	return tok, nil
}

func effectiveRole(held []domain.RoleName, requested string) (domain.RoleName, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		best, _ := domain.HighestRole(held)
		return best, nil
	}

	r, ok := domain.ParseRoleName(requested)
	if !ok || !slices.Contains(held, r) {
		return "", ErrForbidden
	}
	return r, nil
}
