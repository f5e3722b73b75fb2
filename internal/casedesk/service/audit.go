package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/pkg/idx"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/metricsx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
)

const (
	DefaultAuditListLimit = 100
	MaxAuditListLimit     = 1000
)

// AuditRecorder appends audit entries. It never opens its own transaction:
// callers hand in the sink of the unit of work the entry belongs to, so the
// entry commits or rolls back with the business write.
type AuditRecorder struct {
	Metrics *metricsx.Metrics
	Now     func() time.Time
}

// Record stamps entry with an id and timestamp and writes it to sink. There
// is no retry; a failure must fail the caller's unit of work.
func (r *AuditRecorder) Record(ctx context.Context, sink store.AuditLog, entry domain.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now(r.Now)
	}
	entry.ID = idx.NewAt(entry.Timestamp).String()

	if err := sink.InsertAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("record audit %s: %w", entry.Action, err)
	}

	r.Metrics.ObserveAudit(string(entry.Action))

	attrs := []any{
		slog.String("audit_id", entry.ID),
		slog.String("action", string(entry.Action)),
		slog.String("actor_id", entry.ActorID),
		slog.String("actor_role", entry.ActorRole),
		slog.String("detail", entry.Detail),
	}
	if entry.TargetCaseID != nil {
		attrs = append(attrs, slog.String("case_id", *entry.TargetCaseID))
	}
	slogx.FromContext(ctx).Info("audit entry recorded", attrs...)

	return nil
}

type AuditService struct {
	Store   store.Store
	Audit   *AuditRecorder
	Metrics *metricsx.Metrics
}

// List returns the newest audit entries, newest first. Reading the trail is
// itself audited, in the same transaction as the read.
func (s *AuditService) List(ctx context.Context, p jwtx.Principal, limit int) ([]domain.AuditEntry, error) {
	d, err := authorize(ctx, s.Metrics, p, policy.ViewAuditLog)
	if err != nil {
		return nil, err
	}

	switch {
	case limit < 0:
		return nil, invalidField("limit", "must not be negative")
	case limit == 0:
		limit = DefaultAuditListLimit
	case limit > MaxAuditListLimit:
		limit = MaxAuditListLimit
	}

	var entries []domain.AuditEntry
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		entries, err = tx.Audit().ListAuditEntries(ctx, limit)
		if err != nil {
			return err
		}

		return s.Audit.Record(ctx, tx.Audit(), domain.AuditEntry{
			ActorID:   p.SubjectID,
			ActorRole: string(d.Role),
			Action:    domain.ActionViewedAuditLog,
			Detail:    strconv.Itoa(len(entries)),
		})
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func now(f func() time.Time) time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}
