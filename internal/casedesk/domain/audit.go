package domain

import (
	"fmt"
	"time"
)

type AuditAction string

const (
	ActionViewedCases            AuditAction = "ViewedCases"
	ActionUpdatedStatus          AuditAction = "UpdatedStatus"
	ActionViewedAuditLog         AuditAction = "ViewedAuditLog"
	ActionRegisteredUserWithRole AuditAction = "RegisteredUserWithRole"
)

// AuditEntry is an append-only record of a privileged action.
type AuditEntry struct {
	ID           string
	ActorID      string
	ActorRole    string
	Action       AuditAction
	TargetCaseID *string
	Timestamp    time.Time
	Detail       string
}

// StatusChangeDetail renders a transition as "Open → Closed".
func StatusChangeDetail(from, to Status) string {
	return fmt.Sprintf("%s → %s", from, to)
}
