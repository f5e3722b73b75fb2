package sqlite

import (
	"context"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
)

type rolesRepo struct {
	db dbtx
}

func scanRole(row interface{ Scan(...any) error }) (domain.Role, error) {
	var (
		r    domain.Role
		name string
	)
	if err := row.Scan(&r.ID, &name, &r.CreatedAt); err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	r.Name = domain.RoleName(name)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name domain.RoleName) (domain.Role, error) {
	return scanRole(r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM roles WHERE name = ? COLLATE NOCASE`, string(name)))
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, created_at) VALUES (?, ?, ?)`,
		role.ID, string(role.Name), role.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}
