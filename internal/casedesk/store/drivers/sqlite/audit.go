package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
)

type auditRepo struct {
	db dbtx
}

func (r *auditRepo) InsertAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, actor_role, action, target_case_id, timestamp, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.ActorRole, string(e.Action), mapOptionalString(e.TargetCaseID), e.Timestamp.UTC(), e.Detail,
	)
	return mapConstraint(err)
}

func (r *auditRepo) ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_id, actor_role, action, target_case_id, timestamp, detail
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var (
			e      domain.AuditEntry
			action string
			target sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &action, &target, &e.Timestamp, &e.Detail); err != nil {
			return nil, err
		}
		e.Action = domain.AuditAction(action)
		e.TargetCaseID = mapNullStringPtr(target)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
