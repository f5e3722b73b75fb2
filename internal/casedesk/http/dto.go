package http

import (
	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/pkg/casesdk"
)

func toCase(c domain.Case) casesdk.Case {
	return casesdk.Case{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Status:      string(c.Status),
		CreatedByID: c.CreatedByID,
		CreatedAt:   c.CreatedAt,
		ClosedAt:    c.ClosedAt,
	}
}

func toCases(cs []domain.Case) []casesdk.Case {
	out := make([]casesdk.Case, len(cs))
	for i, c := range cs {
		out[i] = toCase(c)
	}
	return out
}

func toAuditEntries(es []domain.AuditEntry) []casesdk.AuditEntry {
	out := make([]casesdk.AuditEntry, len(es))
	for i, e := range es {
		out[i] = casesdk.AuditEntry{
			ID:           e.ID,
			ActorID:      e.ActorID,
			ActorRole:    e.ActorRole,
			Action:       string(e.Action),
			TargetCaseID: e.TargetCaseID,
			Timestamp:    e.Timestamp,
			Detail:       e.Detail,
		}
	}
	return out
}
