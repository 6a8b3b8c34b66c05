package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/repository"
)

func TestMembershipRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	mem := &membership.Membership{UserID: "u1", TentID: "tent1", Role: membership.RoleClient}
	require.NoError(t, repo.Create(ctx, mem))
	require.False(t, mem.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "u1", "tent1")
	require.NoError(t, err)
	require.Equal(t, membership.RoleClient, got.Role)
	require.False(t, got.IsAdmin)

	_, err = repo.Get(ctx, "u1", "other-tent")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMembershipRepository_RoleTaken(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &membership.Membership{UserID: "u1", TentID: "tent1", Role: membership.RoleClient}))

	err := repo.Create(ctx, &membership.Membership{UserID: "u2", TentID: "tent1", Role: membership.RoleClient})
	require.ErrorIs(t, err, repository.ErrConflict)

	// The complementary role is still open
	require.NoError(t, repo.Create(ctx, &membership.Membership{UserID: "u2", TentID: "tent1", Role: membership.RoleManager}))
}

func TestMembershipRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &membership.Membership{UserID: "u1", TentID: "tent1", Role: membership.RoleClient}))
	require.NoError(t, repo.Create(ctx, &membership.Membership{UserID: "u2", TentID: "tent1", Role: membership.RoleManager}))
	require.NoError(t, repo.Create(ctx, &membership.Membership{UserID: "u3", TentID: "tent2", Role: membership.RoleClient}))

	members, err := repo.List(ctx, "tent1")
	require.NoError(t, err)
	require.Len(t, members, 2)
}
