package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/pkg/idx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

type RolesService struct {
	Store store.Store
	Now   func() time.Time
}

// EnsureRoles seeds the fixed role set. Running it again changes nothing.
// Any failure leaves the role table untouched and must abort startup.
func (s *RolesService) EnsureRoles(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, name := range domain.AllRoles {
			_, err := tx.Roles().GetRoleByName(ctx, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("look up role %s: %w", name, err)
			}

			t := now(s.Now)
			role := domain.Role{ID: idx.NewAt(t).String(), Name: name, CreatedAt: t}
			if err := tx.Roles().CreateRole(ctx, role); err != nil {
				return fmt.Errorf("seed role %s: %w", name, err)
			}
			l.Info("seeded role", slog.String("role", string(name)))
		}
		return nil
	})
}
