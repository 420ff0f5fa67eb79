package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medledger/internal/audit"
	auditmem "medledger/internal/audit/store/memory"
	"medledger/internal/authz"
	grantmem "medledger/internal/grant/store/memory"
	"medledger/internal/identity"
	"medledger/internal/identity/revocation"
	"medledger/internal/platform/metrics"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
)

type fixture struct {
	users       *identity.InMemoryStore
	revocations *revocation.InMemoryList
	audits      *auditmem.InMemoryStore
	svc         *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := identity.NewInMemoryStore()
	revocations := revocation.NewInMemoryList()
	audits := auditmem.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(audits, logger, metrics.NewTestMetrics())
	gate := authz.New(grantmem.NewInMemoryStore())

	return &fixture{
		users:       users,
		revocations: revocations,
		audits:      audits,
		svc:         NewService(users, revocations, audits, gate, recorder, logger),
	}
}

func (f *fixture) addUser(t *testing.T, role identity.Role, approved, active bool) *identity.User {
	t.Helper()
	user := &identity.User{
		ID:         id.NewUserID(),
		Name:       "Test " + string(role),
		Email:      id.NewUserID().String() + "@example.com",
		Role:       role,
		IsApproved: approved,
		IsActive:   active,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) admin(t *testing.T) *identity.User {
	return f.addUser(t, identity.RoleAdmin, true, true)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.admin(t)
	f.addUser(t, identity.RoleDoctor, false, true)
	f.addUser(t, identity.RolePatient, false, true)

	t.Run("admin sees every account", func(t *testing.T) {
		users, err := f.svc.ListUsers(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, users, 3)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		doctor := f.addUser(t, identity.RoleDoctor, true, true)
		_, err := f.svc.ListUsers(ctx, doctor)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRoleMismatch))
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("approves and audits", func(t *testing.T) {
		f := newFixture(t)
		admin := f.admin(t)
		doctor := f.addUser(t, identity.RoleDoctor, false, true)

		updated, err := f.svc.Approve(ctx, admin, doctor.ID)
		require.NoError(t, err)
		assert.True(t, updated.IsApproved)

		events, err := f.audits.ListRecent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionUserApproved, events[0].Action)
		assert.Equal(t, admin.ID, events[0].PerformedBy)
		require.NotNil(t, events[0].TargetUser)
		assert.Equal(t, doctor.ID, *events[0].TargetUser)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		f := newFixture(t)
		admin := f.admin(t)

		_, err := f.svc.Approve(ctx, admin, id.NewUserID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates, revokes tokens, and audits", func(t *testing.T) {
		f := newFixture(t)
		admin := f.admin(t)
		doctor := f.addUser(t, identity.RoleDoctor, true, true)

		updated, err := f.svc.Deactivate(ctx, admin, doctor.ID)
		require.NoError(t, err)
		assert.False(t, updated.IsActive)

		revoked, err := f.revocations.IsUserRevoked(ctx, doctor.ID)
		require.NoError(t, err)
		assert.True(t, revoked)

		events, err := f.audits.ListRecent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionUserDeactivated, events[0].Action)
	})

	t.Run("admin cannot deactivate themselves", func(t *testing.T) {
		f := newFixture(t)
		admin := f.admin(t)

		_, err := f.svc.Deactivate(ctx, admin, admin.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("deactivated admin loses access immediately", func(t *testing.T) {
		f := newFixture(t)
		admin := f.admin(t)
		other := f.admin(t)

		_, err := f.svc.Deactivate(ctx, admin, other.ID)
		require.NoError(t, err)

		stale, err := f.users.FindByID(ctx, other.ID)
		require.NoError(t, err)
		_, err = f.svc.ListUsers(ctx, stale)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAccountDeactivated))
	})
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.admin(t)

	doctorA := f.addUser(t, identity.RoleDoctor, false, true)
	doctorB := f.addUser(t, identity.RoleDoctor, false, true)
	_, err := f.svc.Approve(ctx, admin, doctorA.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, admin, doctorB.ID)
	require.NoError(t, err)
	_, err = f.svc.Deactivate(ctx, admin, doctorB.ID)
	require.NoError(t, err)

	t.Run("returns events newest first", func(t *testing.T) {
		events, err := f.svc.AuditTrail(ctx, admin, nil, 0)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, audit.ActionUserDeactivated, events[0].Action)
	})

	t.Run("filters by action", func(t *testing.T) {
		events, err := f.svc.AuditTrail(ctx, admin, []audit.Action{audit.ActionUserApproved}, 0)
		require.NoError(t, err)
		require.Len(t, events, 2)
		for _, e := range events {
			assert.Equal(t, audit.ActionUserApproved, e.Action)
		}
	})

	t.Run("honors the limit", func(t *testing.T) {
		events, err := f.svc.AuditTrail(ctx, admin, nil, 2)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("non-admin cannot read the trail", func(t *testing.T) {
		_, err := f.svc.AuditTrail(ctx, doctorA, nil, 0)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRoleMismatch))
	})
}
