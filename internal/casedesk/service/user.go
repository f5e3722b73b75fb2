package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/pkg/cryptox"
	"github.com/aussiebroadwan/casedesk/pkg/idx"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/metricsx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

type UserService struct {
	Store   store.Store
	Hasher  *cryptox.PasswordHasher
	Audit   *AuditRecorder
	Metrics *metricsx.Metrics
	Now     func() time.Time
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
}

type RegisterWithRoleInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
	Role     string `json:"role" validate:"required"`
}

// Register creates a user holding the User role.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	var u domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		u, err = s.createWithRole(ctx, tx, in.Username, hash, domain.RoleUser)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// RegisterWithRole lets an Admin create a user holding any role. The new
// account and its audit entry commit together.
func (s *UserService) RegisterWithRole(ctx context.Context, p jwtx.Principal, in RegisterWithRoleInput) (domain.User, error) {
	d, err := authorize(ctx, s.Metrics, p, policy.RegisterWithRole)
	if err != nil {
		return domain.User{}, err
	}

	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return domain.User{}, err
	}
	role, ok := domain.ParseRoleName(strings.TrimSpace(in.Role))
	if !ok {
		return domain.User{}, invalidField("role", "must be Admin, SupportStaff or User")
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	var u domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		u, err = s.createWithRole(ctx, tx, in.Username, hash, role)
		if err != nil {
			return err
		}

		return s.Audit.Record(ctx, tx.Audit(), domain.AuditEntry{
			ActorID:   p.SubjectID,
			ActorRole: string(d.Role),
			Action:    domain.ActionRegisteredUserWithRole,
			Detail:    fmt.Sprintf("%s as %s", u.ID, role),
		})
	})
	if err != nil {
		return domain.User{}, err
	}

	return u, nil
}

// BootstrapAdmin creates an Admin account on first start so a fresh
// deployment has someone who can grant elevated roles. It does nothing when
// the username already exists.
func (s *UserService) BootstrapAdmin(ctx context.Context, in RegisterInput) (bool, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return false, err
	}

	_, err := s.Store.Users().GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	var u domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		u, err = s.createWithRole(ctx, tx, in.Username, hash, domain.RoleAdmin)
		return err
	})
	if errors.Is(err, ErrUsernameTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	slogx.FromContext(ctx).Info("bootstrap admin created", slog.String("user_id", u.ID))
	return true, nil
}

// createWithRole runs inside tx; the password is hashed beforehand so the
// transaction is not held open across the key derivation.
func (s *UserService) createWithRole(ctx context.Context, tx store.Tx, username, hash string, role domain.RoleName) (domain.User, error) {
	t := now(s.Now)
	u := domain.User{
		ID:           idx.NewAt(t).String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    t,
	}

	if err := tx.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	if err := tx.Users().AssignRole(ctx, u.ID, role); err != nil {
		return domain.User{}, fmt.Errorf("assign role %s: %w", role, err)
	}

	return u, nil
}

// VerifyPassword returns the user for username if password matches. An
// unknown username costs the same as a wrong password and reports the same
// error.
func (s *UserService) VerifyPassword(ctx context.Context, username, password string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Hasher.VerifyDummy(password)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	return u, nil
}

// RolesOf returns the roles held by userID, highest privilege first.
func (s *UserService) RolesOf(ctx context.Context, userID string) ([]domain.RoleName, error) {
	return s.Store.Users().RolesOf(ctx, userID)
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrNotFound
	}
	return u, err
}
