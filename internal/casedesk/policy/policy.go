// Package policy decides who may do what to support cases. Every function is
// pure: the same principal and action always produce the same decision.
package policy

import (
	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
)

type Action string

const (
	ListCases        Action = "ListCases"
	CreateCase       Action = "CreateCase"
	UpdateCaseStatus Action = "UpdateCaseStatus"
	ViewDashboard    Action = "ViewDashboard"
	ViewAuditLog     Action = "ViewAuditLog"
	RegisterWithRole Action = "RegisterWithRole"
)

type Effect int

const (
	Allow Effect = iota
	DenyUnauthorized
	DenyForbidden
)

func (e Effect) String() string {
	switch e {
	case Allow:
		return "allow"
	case DenyUnauthorized:
		return "unauthorized"
	case DenyForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Scope narrows what an allowed principal can see. The zero Scope is full
// visibility.
type Scope struct {
	OwnerID string
}

func (s Scope) Full() bool { return s.OwnerID == "" }

// noOwner is not a valid ULID, so no stored case carries it.
const noOwner = "-"

// Decision is the outcome of Authorize. Role is the recognised role of the
// principal, empty when the decision was made before role resolution.
type Decision struct {
	Effect Effect
	Scope  Scope
	Role   domain.RoleName
}

func (d Decision) Allowed() bool { return d.Effect == Allow }

// Authorize applies the role rules to a principal. Only the role claim
// matters: ownership of the target case never grants a mutation.
func Authorize(p jwtx.Principal, action Action) Decision {
	if !p.Authenticated {
		return Decision{Effect: DenyUnauthorized}
	}

	role, ok := domain.ParseRoleName(p.Role)
	if !ok {
		return Decision{Effect: DenyForbidden}
	}

	allow := Decision{Effect: Allow, Role: role}
	deny := Decision{Effect: DenyForbidden, Role: role}

	switch action {
	case ListCases:
		if role == domain.RoleUser {
			allow.Scope = Scope{OwnerID: p.SubjectID}
		}
		return allow
	case CreateCase:
		return allow
	case UpdateCaseStatus:
		if role.IsElevated() {
			return allow
		}
		return deny
	case ViewDashboard, ViewAuditLog, RegisterWithRole:
		if role == domain.RoleAdmin {
			return allow
		}
		return deny
	default:
		return deny
	}
}

// Refinements are the caller-supplied narrowing of a list query.
type Refinements struct {
	Status domain.Status
	Search string
}

// Filter builds the list filter for an allowed ListCases decision. The
// visibility scope comes from the decision; refinements can only narrow it.
// A denied decision yields a filter that matches nothing.
func (d Decision) Filter(r Refinements) domain.CaseFilter {
	if !d.Allowed() {
		return domain.CaseFilter{OwnerID: noOwner}
	}

	return domain.CaseFilter{
		OwnerID: d.Scope.OwnerID,
		Status:  r.Status,
		Search:  r.Search,
	}
}
