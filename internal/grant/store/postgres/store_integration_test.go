//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medledger/internal/grant"
	"medledger/internal/identity"
	id "medledger/pkg/domain"
	"medledger/pkg/platform/sentinel"
	"medledger/pkg/testutil/containers"
)

func setupStore(t *testing.T) (*Store, *identity.PostgresStore, func()) {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	cleanup := func() {
		_ = pg.TruncateTables(context.Background(), "access_grants", "users")
	}
	return New(pg.DB), identity.NewPostgresStore(pg.DB), cleanup
}

func seedUser(t *testing.T, users *identity.PostgresStore, role identity.Role) id.UserID {
	t.Helper()
	u := &identity.User{
		ID:        id.NewUserID(),
		Name:      "Integration " + string(role),
		Email:     id.NewUserID().String() + "@example.com",
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u.ID
}

func TestPostgresGrantLifecycle(t *testing.T) {
	ctx := context.Background()
	store, users, cleanup := setupStore(t)
	defer cleanup()

	accessor := seedUser(t, users, identity.RoleDoctor)
	owner := seedUser(t, users, identity.RolePatient)
	requestedAt := time.Now().UTC().Truncate(time.Microsecond)

	g, err := grant.NewRequest(id.NewGrantID(), accessor, owner, requestedAt)
	require.NoError(t, err)
	require.NoError(t, store.CreateRequest(ctx, g))

	t.Run("unique index blocks a second active request", func(t *testing.T) {
		dup, err := grant.NewRequest(id.NewGrantID(), accessor, owner, requestedAt)
		require.NoError(t, err)
		assert.ErrorIs(t, store.CreateRequest(ctx, dup), sentinel.ErrConflict)
	})

	decidedAt := requestedAt.Add(time.Minute)
	granted, err := store.Transition(ctx, g.ID, owner, []grant.Status{grant.StatusPending}, grant.StatusGranted, decidedAt)
	require.NoError(t, err)
	assert.Equal(t, grant.StatusGranted, granted.Status)
	require.NotNil(t, granted.RespondedAt)
	assert.True(t, granted.RespondedAt.Equal(decidedAt))

	t.Run("is granted reflects live state", func(t *testing.T) {
		ok, err := store.IsGranted(ctx, accessor, owner)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("revoke keeps the original responded_at", func(t *testing.T) {
		revoked, err := store.Transition(ctx, g.ID, owner, []grant.Status{grant.StatusPending, grant.StatusGranted}, grant.StatusRevoked, decidedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, grant.StatusRevoked, revoked.Status)
		assert.True(t, revoked.RespondedAt.Equal(decidedAt))
	})

	t.Run("revoked is terminal at the storage layer", func(t *testing.T) {
		_, err := store.Transition(ctx, g.ID, owner, []grant.Status{grant.StatusPending, grant.StatusGranted}, grant.StatusGranted, decidedAt)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("revoked frees the pair for a new request", func(t *testing.T) {
		fresh, err := grant.NewRequest(id.NewGrantID(), accessor, owner, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, store.CreateRequest(ctx, fresh))

		grants, err := store.ListByAccessor(ctx, accessor)
		require.NoError(t, err)
		assert.Len(t, grants, 2, "revoked history rows are preserved")
		assert.Equal(t, fresh.ID, grants[0].ID, "newest first")
	})
}

func TestPostgresTransitionOwnership(t *testing.T) {
	ctx := context.Background()
	store, users, cleanup := setupStore(t)
	defer cleanup()

	accessor := seedUser(t, users, identity.RoleDoctor)
	owner := seedUser(t, users, identity.RolePatient)
	stranger := seedUser(t, users, identity.RolePatient)

	g, err := grant.NewRequest(id.NewGrantID(), accessor, owner, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.CreateRequest(ctx, g))

	t.Run("foreign owner reads as not found", func(t *testing.T) {
		_, err := store.Transition(ctx, g.ID, stranger, []grant.Status{grant.StatusPending}, grant.StatusGranted, time.Now().UTC())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("unknown grant reads as not found", func(t *testing.T) {
		_, err := store.Transition(ctx, id.NewGrantID(), owner, []grant.Status{grant.StatusPending}, grant.StatusGranted, time.Now().UTC())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
