package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Sub-repositories are reached via
// methods so a Tx-scoped Store exposes exactly the same surface, and nobody
// can open a transaction inside a transaction by accident.
type Store interface {
	Users() Users
	Roles() Roles
	Cases() Cases
	Audit() AuditLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing if fn returns nil and
	// rolling back otherwise. A case mutation and its audit entry go through
	// here together so that neither is ever visible without the other.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername matches the username ignoring case.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user. A username that differs from an
	// existing one only by case is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// AssignRole grants a seeded role to a user. Assigning twice is a no-op.
	AssignRole(ctx context.Context, userID string, role domain.RoleName) error

	// RolesOf returns the user's roles, highest privilege first.
	RolesOf(ctx context.Context, userID string) ([]domain.RoleName, error)
}

type Roles interface {
	// GetRoleByName matches the name ignoring case.
	GetRoleByName(ctx context.Context, name domain.RoleName) (domain.Role, error)

	CreateRole(ctx context.Context, r domain.Role) error
}

type Cases interface {
	CreateCase(ctx context.Context, c domain.Case) error

	GetCaseByID(ctx context.Context, id string) (domain.Case, error)

	// ListCases returns cases matching every non-empty filter field, newest
	// first. Status compares ignoring case; Search is a case-insensitive
	// substring match over title and description.
	ListCases(ctx context.Context, f domain.CaseFilter) ([]domain.Case, error)

	// UpdateCaseStatus persists c.Status and c.ClosedAt.
	UpdateCaseStatus(ctx context.Context, c domain.Case) error

	CountByStatus(ctx context.Context, s domain.Status) (int, error)

	// ListClosedCases returns every closed case, for resolution statistics.
	ListClosedCases(ctx context.Context) ([]domain.Case, error)
}

// AuditLog is append-only: there is deliberately no update or delete.
type AuditLog interface {
	InsertAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListAuditEntries returns the most recent entries, newest first.
	ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
