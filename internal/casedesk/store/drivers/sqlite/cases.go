package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
)

type casesRepo struct {
	db dbtx
}

const caseColumns = `id, title, description, status, created_by_id, created_at, closed_at`

func scanCase(row interface{ Scan(...any) error }) (domain.Case, error) {
	var (
		c        domain.Case
		status   string
		closedAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &status, &c.CreatedByID, &c.CreatedAt, &closedAt); err != nil {
		return domain.Case{}, mapNotFound(err)
	}
	c.Status = domain.Status(status)
	c.CreatedAt = c.CreatedAt.UTC()
	c.ClosedAt = mapNullTimePtr(closedAt)
	return c, nil
}

func (r *casesRepo) CreateCase(ctx context.Context, c domain.Case) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cases (`+caseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, string(c.Status), c.CreatedByID, c.CreatedAt.UTC(), mapOptionalTime(c.ClosedAt),
	)
	return mapConstraint(err)
}

func (r *casesRepo) GetCaseByID(ctx context.Context, id string) (domain.Case, error) {
	return scanCase(r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id))
}

func (r *casesRepo) ListCases(ctx context.Context, f domain.CaseFilter) ([]domain.Case, error) {
	var (
		where []string
		args  []any
	)

	if f.OwnerID != "" {
		where = append(where, `created_by_id = ?`)
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		where = append(where, `status = ? COLLATE NOCASE`)
		args = append(args, string(f.Status))
	}
	if f.Search != "" {
		where = append(where, `(contains_fold(title, ?) OR contains_fold(description, ?))`)
		args = append(args, f.Search, f.Search)
	}

	query := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.queryCases(ctx, query, args...)
}

func (r *casesRepo) UpdateCaseStatus(ctx context.Context, c domain.Case) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = ?, closed_at = ? WHERE id = ?`,
		string(c.Status), mapOptionalTime(c.ClosedAt), c.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *casesRepo) CountByStatus(ctx context.Context, s domain.Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases WHERE status = ? COLLATE NOCASE`, string(s)).Scan(&n)
	return n, err
}

func (r *casesRepo) ListClosedCases(ctx context.Context) ([]domain.Case, error) {
	return r.queryCases(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE status = 'Closed' AND closed_at IS NOT NULL ORDER BY id`)
}

func (r *casesRepo) queryCases(ctx context.Context, query string, args ...any) ([]domain.Case, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []domain.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
