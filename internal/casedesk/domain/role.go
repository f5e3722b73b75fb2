package domain

import (
	"time"

	"golang.org/x/text/cases"
)

// RoleName is one of the closed set of roles. Names are unique ignoring case.
type RoleName string

const (
	RoleAdmin        RoleName = "Admin"
	RoleSupportStaff RoleName = "SupportStaff"
	RoleUser         RoleName = "User"
)

// AllRoles is the seed set, highest privilege first.
var AllRoles = []RoleName{RoleAdmin, RoleSupportStaff, RoleUser}

type Role struct {
	ID        string
	Name      RoleName
	CreatedAt time.Time
}

// ParseRoleName maps s onto the closed set using Unicode case folding. Any
// other value reports false and must be treated as holding no grant.
func ParseRoleName(s string) (RoleName, bool) {
	folded := cases.Fold().String(s)
	for _, r := range AllRoles {
		if cases.Fold().String(string(r)) == folded {
			return r, true
		}
	}
	return "", false
}

// Rank orders roles by privilege. Unknown roles rank 0.
func (r RoleName) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleSupportStaff:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// IsElevated reports whether r may see and mutate every case.
func (r RoleName) IsElevated() bool {
	return r == RoleAdmin || r == RoleSupportStaff
}

// HighestRole picks the most privileged known role in held.
func HighestRole(held []RoleName) (RoleName, bool) {
	var best RoleName
	for _, r := range held {
		if r.Rank() > best.Rank() {
			best = r
		}
	}
	return best, best.Rank() > 0
}
