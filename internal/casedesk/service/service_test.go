package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store/drivers/sqlite"
	"github.com/aussiebroadwan/casedesk/pkg/cryptox"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var (
	t0     = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	secret = []byte("0123456789abcdef0123456789abcdef")

	fastArgon2 = cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store     *sqlite.Store
	clock     *fakeClock
	recorder  *AuditRecorder
	roles     *RolesService
	users     *UserService
	tokens    *TokenService
	cases     *CaseService
	audit     *AuditService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	hasher, err := cryptox.NewPasswordHasher("pepper", fastArgon2)
	require.NoError(t, err)

	issuer, err := jwtx.NewIssuer(jwtx.IssuerOptions{Secret: secret, Issuer: "casedesk", Audience: "casedesk-api"})
	require.NoError(t, err)

	clock := &fakeClock{t: t0}
	recorder := &AuditRecorder{Now: clock.Now}

	f := &fixture{
		store:     s,
		clock:     clock,
		recorder:  recorder,
		roles:     &RolesService{Store: s, Now: clock.Now},
		users:     &UserService{Store: s, Hasher: hasher, Audit: recorder, Now: clock.Now},
		cases:     &CaseService{Store: s, Audit: recorder, Now: clock.Now},
		audit:     &AuditService{Store: s, Audit: recorder},
		dashboard: &DashboardService{Store: s},
	}
	f.tokens = &TokenService{Users: f.users, Issuer: issuer, Now: clock.Now}

	require.NoError(t, f.roles.EnsureRoles(context.Background()))
	return f
}

func (f *fixture) auditEntries(t *testing.T) []domain.AuditEntry {
	t.Helper()
	entries, err := f.store.Audit().ListAuditEntries(context.Background(), 100)
	require.NoError(t, err)
	return entries
}

func principal(sub string, role domain.RoleName) jwtx.Principal {
	return jwtx.Principal{SubjectID: sub, Role: string(role), Authenticated: true}
}

var (
	u1    = principal("u1", domain.RoleUser)
	u2    = principal("u2", domain.RoleUser)
	staff = principal("staff", domain.RoleSupportStaff)
	admin = principal("admin", domain.RoleAdmin)
)

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.NotEmpty(t, verr.Fields)
	require.Equal(t, field, verr.Fields[0].Field)
}

func TestUsersOnlySeeTheirOwnCases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "VPN drops", Description: "Every 10 minutes"})
	require.NoError(t, err)

	mine, err := f.cases.List(ctx, u1, ListQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, c.ID, mine[0].ID)

	theirs, err := f.cases.List(ctx, u2, ListQuery{})
	require.NoError(t, err)
	require.Empty(t, theirs)

	// Widening refinements cannot escape the owner scope.
	theirs, err = f.cases.List(ctx, u2, ListQuery{Search: "VPN", Status: "Open"})
	require.NoError(t, err)
	require.Empty(t, theirs)

	require.Empty(t, f.auditEntries(t), "scoped reads are not audited")
}

func TestElevatedRolesSeeEveryCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, p := range []jwtx.Principal{u1, u2} {
		_, err := f.cases.Create(ctx, p, CreateCaseInput{Title: "case of " + p.SubjectID})
		require.NoError(t, err)
	}

	for _, p := range []jwtx.Principal{staff, admin} {
		all, err := f.cases.List(ctx, p, ListQuery{})
		require.NoError(t, err)
		require.Len(t, all, 2)
	}

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, domain.ActionViewedCases, e.Action)
		require.Equal(t, "2", e.Detail)
		require.Nil(t, e.TargetCaseID)
	}
	require.Equal(t, "admin", entries[0].ActorID)
	require.Equal(t, "Admin", entries[0].ActorRole)
}

func TestCloseBySupportStaff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "Printer", Status: "Open"})
	require.NoError(t, err)

	f.clock.Advance(90 * time.Minute)
	got, err := f.cases.UpdateStatus(ctx, staff, c.ID, UpdateStatusInput{Status: "Closed"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
	require.True(t, t0.Add(90*time.Minute).Equal(*got.ClosedAt))

	entries := f.auditEntries(t)
	require.Len(t, entries, 1)
	require.Equal(t, domain.ActionUpdatedStatus, entries[0].Action)
	require.Equal(t, "Open → Closed", entries[0].Detail)
	require.Equal(t, "staff", entries[0].ActorID)
	require.Equal(t, "SupportStaff", entries[0].ActorRole)
	require.NotNil(t, entries[0].TargetCaseID)
	require.Equal(t, c.ID, *entries[0].TargetCaseID)
}

func TestCreatorCannotChangeStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "Printer"})
	require.NoError(t, err)

	_, err = f.cases.UpdateStatus(ctx, u1, c.ID, UpdateStatusInput{Status: "Closed"})
	require.ErrorIs(t, err, ErrForbidden)

	stored, err := f.store.Cases().GetCaseByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, stored.Status)
	require.Nil(t, stored.ClosedAt)
	require.Empty(t, f.auditEntries(t))
}

func TestReopenClearsClosedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "Printer"})
	require.NoError(t, err)
	_, err = f.cases.UpdateStatus(ctx, staff, c.ID, UpdateStatusInput{Status: "Closed"})
	require.NoError(t, err)

	got, err := f.cases.UpdateStatus(ctx, admin, c.ID, UpdateStatusInput{Status: "open"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, got.Status)
	require.Nil(t, got.ClosedAt)

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	require.Equal(t, "Closed → Open", entries[0].Detail)
}

func TestStatusFilterIgnoresCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	open, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "still open"})
	require.NoError(t, err)
	closed, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "done"})
	require.NoError(t, err)
	_, err = f.cases.UpdateStatus(ctx, staff, closed.ID, UpdateStatusInput{Status: "CLOSED"})
	require.NoError(t, err)

	for _, p := range []jwtx.Principal{u1, staff, admin} {
		for _, q := range []string{"Closed", "closed", "cLoSeD"} {
			got, err := f.cases.List(ctx, p, ListQuery{Status: q})
			require.NoError(t, err)
			require.Len(t, got, 1)
			require.Equal(t, closed.ID, got[0].ID)
			require.NotEqual(t, open.ID, got[0].ID)
		}
	}

	_, err = f.cases.List(ctx, staff, ListQuery{Status: "Pending"})
	requireFieldError(t, err, "status")
}

func TestSameStatusIsANoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "Printer"})
	require.NoError(t, err)

	got, err := f.cases.UpdateStatus(ctx, staff, c.ID, UpdateStatusInput{Status: "Open"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, got.Status)
	require.Empty(t, f.auditEntries(t))
}

func TestUpdateStatusErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "Printer"})
	require.NoError(t, err)

	t.Run("missing case", func(t *testing.T) {
		_, err := f.cases.UpdateStatus(ctx, staff, "01HZZZZZZZZZZZZZZZZZZZZZZZ", UpdateStatusInput{Status: "Closed"})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := f.cases.UpdateStatus(ctx, staff, "not-a-ulid", UpdateStatusInput{Status: "Closed"})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("lower-case id", func(t *testing.T) {
		got, err := f.cases.UpdateStatus(ctx, staff, strings.ToLower(c.ID), UpdateStatusInput{Status: "Open"})
		require.NoError(t, err)
		require.Equal(t, c.ID, got.ID)
	})

	t.Run("role is checked before the case is looked up", func(t *testing.T) {
		_, err := f.cases.UpdateStatus(ctx, u1, "missing", UpdateStatusInput{Status: "Closed"})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.cases.UpdateStatus(ctx, staff, c.ID, UpdateStatusInput{Status: "Resolved"})
		requireFieldError(t, err, "status")
	})

	t.Run("empty status", func(t *testing.T) {
		_, err := f.cases.UpdateStatus(ctx, staff, c.ID, UpdateStatusInput{})
		requireFieldError(t, err, "status")
	})
}

func TestCreateForcesOwnerAndOpenStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "  Laptop  ", Description: "Slow", Status: "Closed"})
	require.NoError(t, err)
	require.Equal(t, "u1", c.CreatedByID)
	require.Equal(t, domain.StatusOpen, c.Status)
	require.Nil(t, c.ClosedAt)
	require.Equal(t, "Laptop", c.Title)
	require.True(t, t0.Equal(c.CreatedAt))

	_, err = f.cases.Create(ctx, u1, CreateCaseInput{Title: "   "})
	requireFieldError(t, err, "title")
}

func TestUnauthenticatedAndUnknownRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	anon := jwtx.Anonymous()
	guest := jwtx.Principal{SubjectID: "g1", Role: "Guest", Authenticated: true}
	noRole := jwtx.Principal{SubjectID: "g2", Authenticated: true}

	_, err := f.cases.List(ctx, anon, ListQuery{})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.cases.Create(ctx, anon, CreateCaseInput{Title: "x"})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.cases.UpdateStatus(ctx, anon, "x", UpdateStatusInput{Status: "Closed"})
	require.ErrorIs(t, err, ErrUnauthorized)

	for _, p := range []jwtx.Principal{guest, noRole} {
		_, err = f.cases.List(ctx, p, ListQuery{})
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.cases.Create(ctx, p, CreateCaseInput{Title: "x"})
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.cases.UpdateStatus(ctx, p, "x", UpdateStatusInput{Status: "Closed"})
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.dashboard.Summary(ctx, p)
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.audit.List(ctx, p, 0)
		require.ErrorIs(t, err, ErrForbidden)
	}

	// Role claims match regardless of letter case.
	_, err = f.cases.List(ctx, jwtx.Principal{SubjectID: "s", Role: "supportstaff", Authenticated: true}, ListQuery{})
	require.NoError(t, err)
}

// failingAuditStore hands out transactions whose audit sink always fails.
type failingAuditStore struct {
	store.Store
}

var errAuditDown = errors.New("audit sink unavailable")

func (s failingAuditStore) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(failingAuditTx{baseTx: tx})
	})
}

// baseTx renames the embedded transaction; a field called Tx would hide the
// Tx method that store.Tx requires.
type baseTx interface{ store.Tx }

type failingAuditTx struct {
	baseTx
}

func (failingAuditTx) Audit() store.AuditLog { return failingSink{} }

type failingSink struct{}

func (failingSink) InsertAuditEntry(context.Context, domain.AuditEntry) error { return errAuditDown }

func (failingSink) ListAuditEntries(context.Context, int) ([]domain.AuditEntry, error) {
	return nil, errAuditDown
}

func TestAuditFailureRollsBackStatusChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "Printer"})
	require.NoError(t, err)

	broken := &CaseService{Store: failingAuditStore{Store: f.store}, Audit: f.recorder, Now: f.clock.Now}

	_, err = broken.UpdateStatus(ctx, staff, c.ID, UpdateStatusInput{Status: "Closed"})
	require.ErrorIs(t, err, errAuditDown)

	stored, err := f.store.Cases().GetCaseByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, stored.Status)
	require.Nil(t, stored.ClosedAt)

	_, err = broken.List(ctx, admin, ListQuery{})
	require.ErrorIs(t, err, errAuditDown)

	// Scoped reads do not touch the audit sink.
	_, err = broken.List(ctx, u1, ListQuery{})
	require.NoError(t, err)
}

func TestEnsureRolesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.roles.EnsureRoles(ctx))
	ids := make(map[domain.RoleName]string, len(domain.AllRoles))
	for _, name := range domain.AllRoles {
		r, err := f.store.Roles().GetRoleByName(ctx, name)
		require.NoError(t, err)
		ids[name] = r.ID
	}

	require.NoError(t, f.roles.EnsureRoles(ctx))
	for _, name := range domain.AllRoles {
		r, err := f.store.Roles().GetRoleByName(ctx, name)
		require.NoError(t, err)
		require.Equal(t, ids[name], r.ID, name)
	}
}

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	empty, err := f.dashboard.Summary(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, domain.DashboardSummary{}, empty)

	a, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "a"})
	require.NoError(t, err)
	b, err := f.cases.Create(ctx, u1, CreateCaseInput{Title: "b"})
	require.NoError(t, err)
	_, err = f.cases.Create(ctx, u1, CreateCaseInput{Title: "c"})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.cases.UpdateStatus(ctx, staff, a.ID, UpdateStatusInput{Status: "Closed"})
	require.NoError(t, err)
	f.clock.Advance(20 * time.Minute)
	_, err = f.cases.UpdateStatus(ctx, staff, b.ID, UpdateStatusInput{Status: "Closed"})
	require.NoError(t, err)

	got, err := f.dashboard.Summary(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, 1, got.OpenCases)
	require.Equal(t, 2, got.ClosedCases)
	require.InDelta(t, 1.17, got.AvgResolutionTimeHours, 1e-9) // (60+80)/2 min
	require.Zero(t, got.AgentsOnline)

	_, err = f.dashboard.Summary(ctx, staff)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuditServiceList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.cases.List(ctx, staff, ListQuery{})
	require.NoError(t, err)

	entries, err := f.audit.List(ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.ActionViewedCases, entries[0].Action)

	all := f.auditEntries(t)
	require.Len(t, all, 2)
	require.Equal(t, domain.ActionViewedAuditLog, all[0].Action)
	require.Equal(t, "1", all[0].Detail)

	_, err = f.audit.List(ctx, admin, -1)
	requireFieldError(t, err, "limit")

	_, err = f.audit.List(ctx, staff, 10)
	require.ErrorIs(t, err, ErrForbidden)
}
