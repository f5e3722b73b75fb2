package sqlite

import (
	"context"
	"slices"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) AssignRole(ctx context.Context, userID string, role domain.RoleName) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_roles (user_id, role_id)
		SELECT ?, id FROM roles WHERE name = ? COLLATE NOCASE`,
		userID, string(role),
	)
	if err != nil {
		return err
	}

	// Zero rows means either an existing grant or a missing role; only the
	// latter is an error.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM roles WHERE name = ? COLLATE NOCASE`, string(role)).Scan(&exists)
		if err != nil {
			return mapNotFound(err)
		}
	}
	return nil
}

func (r *usersRepo) RolesOf(ctx context.Context, userID string) ([]domain.RoleName, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.RoleName
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		// Stored names are seeded canonically, but tolerate legacy casing.
		if rn, ok := domain.ParseRoleName(name); ok {
			roles = append(roles, rn)
		} else {
			roles = append(roles, domain.RoleName(name))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(roles, func(a, b domain.RoleName) int { return b.Rank() - a.Rank() })
	return roles, nil
}
