package membership_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/repository"
	"github.com/tentworks/tentflow/internal/repository/mocks"
)

func newResolver(repo *mocks.MembershipRepository) *membership.Resolver {
	return membership.NewResolver(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve(t *testing.T) {
	repo := &mocks.MembershipRepository{}
	repo.On("Get", mock.Anything, "u1", "tent1").
		Return(&membership.Membership{UserID: "u1", TentID: "tent1", Role: membership.RoleClient}, nil)
	repo.On("Get", mock.Anything, "stranger", "tent1").
		Return((*membership.Membership)(nil), repository.ErrNotFound)

	r := newResolver(repo)

	m, err := r.Resolve(context.Background(), "u1", "tent1")
	require.NoError(t, err)
	require.Equal(t, membership.RoleClient, m.Role)

	_, err = r.Resolve(context.Background(), "stranger", "tent1")
	require.ErrorIs(t, err, membership.ErrNotAMember)

	_, err = r.Resolve(context.Background(), "", "tent1")
	require.ErrorIs(t, err, membership.ErrInvalidInput)
}

func TestCounterpart(t *testing.T) {
	repo := &mocks.MembershipRepository{}
	repo.On("List", mock.Anything, "tent1").Return([]membership.Membership{
		{UserID: "u1", TentID: "tent1", Role: membership.RoleClient},
		{UserID: "u2", TentID: "tent1", Role: membership.RoleManager},
	}, nil)
	repo.On("List", mock.Anything, "lonely").Return([]membership.Membership{
		{UserID: "u1", TentID: "lonely", Role: membership.RoleClient},
	}, nil)

	r := newResolver(repo)

	other, err := r.Counterpart(context.Background(), "u1", "tent1")
	require.NoError(t, err)
	require.NotNil(t, other)
	require.Equal(t, "u2", other.UserID)

	// Alone in the tent: no counterpart, no error
	other, err = r.Counterpart(context.Background(), "u1", "lonely")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestJoin_FirstMemberKeepsRole(t *testing.T) {
	repo := &mocks.MembershipRepository{}
	repo.On("List", mock.Anything, "tent1").Return([]membership.Membership(nil), nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	r := newResolver(repo)
	m, err := r.Join(context.Background(), "u1", "tent1", membership.RoleManager)
	require.NoError(t, err)
	require.Equal(t, membership.RoleManager, m.Role)
}

func TestJoin_SecondMemberGetsComplement(t *testing.T) {
	repo := &mocks.MembershipRepository{}
	repo.On("List", mock.Anything, "tent1").Return([]membership.Membership{
		{UserID: "u1", TentID: "tent1", Role: membership.RoleClient},
	}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	r := newResolver(repo)
	// Asked for client, gets manager: the roles must complement
	m, err := r.Join(context.Background(), "u2", "tent1", membership.RoleClient)
	require.NoError(t, err)
	require.Equal(t, membership.RoleManager, m.Role)
}

func TestJoin_TentFull(t *testing.T) {
	repo := &mocks.MembershipRepository{}
	repo.On("List", mock.Anything, "tent1").Return([]membership.Membership{
		{UserID: "u1", TentID: "tent1", Role: membership.RoleClient},
		{UserID: "u2", TentID: "tent1", Role: membership.RoleManager},
	}, nil)

	r := newResolver(repo)
	_, err := r.Join(context.Background(), "u3", "tent1", membership.RoleClient)
	require.ErrorIs(t, err, membership.ErrTentFull)
}

func TestJoin_SameUserTwice(t *testing.T) {
	repo := &mocks.MembershipRepository{}
	repo.On("List", mock.Anything, "tent1").Return([]membership.Membership{
		{UserID: "u1", TentID: "tent1", Role: membership.RoleClient},
	}, nil)

	r := newResolver(repo)
	_, err := r.Join(context.Background(), "u1", "tent1", membership.RoleManager)
	require.ErrorIs(t, err, membership.ErrRoleTaken)
}

func TestRoleComplement(t *testing.T) {
	require.Equal(t, membership.RoleManager, membership.RoleClient.Complement())
	require.Equal(t, membership.RoleClient, membership.RoleManager.Complement())
	require.True(t, membership.RoleClient.Valid())
	require.False(t, membership.Role("auditor").Valid())
}
