package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/aggregate"
)

const testUserID = "22222222-2222-4222-8222-222222222222"

func TestUser_CreateLockUnlockDelete(t *testing.T) {
	u := aggregate.NewUserAggregate("instance-1", testUserID)

	require.NoError(t, u.CreateUser("org-1", "alice", aggregate.UserTypeHuman))
	require.Equal(t, aggregate.UserStateInitial, u.State)

	require.NoError(t, u.VerifyEmail("alice@example.com"))
	require.Equal(t, "alice@example.com", u.VerifiedEmail)

	require.NoError(t, u.Lock())
	require.Equal(t, aggregate.UserStateLocked, u.State)

	require.NoError(t, u.Unlock())
	require.Equal(t, aggregate.UserStateActive, u.State)

	require.NoError(t, u.Delete())
	require.Equal(t, aggregate.UserStateDeleted, u.State)

	// Deletion is idempotent.
	require.NoError(t, u.Delete())
}

func TestUser_InvalidUserTypeRejected(t *testing.T) {
	u := aggregate.NewUserAggregate("instance-1", testUserID)
	require.Error(t, u.CreateUser("org-1", "alice", "BOGUS"))
}

func TestUser_OperationsRejectedAfterDelete(t *testing.T) {
	u := aggregate.NewUserAggregate("instance-1", testUserID)
	require.NoError(t, u.CreateUser("org-1", "alice", aggregate.UserTypeHuman))
	require.NoError(t, u.Delete())

	require.Error(t, u.VerifyEmail("alice@example.com"))
	require.Error(t, u.Lock())
}

func TestUser_SetPassword(t *testing.T) {
	u := aggregate.NewUserAggregate("instance-1", testUserID)
	require.NoError(t, u.CreateUser("org-1", "alice", aggregate.UserTypeHuman))

	require.NoError(t, u.SetPassword("a-bcrypt-hash"))
	require.Equal(t, "a-bcrypt-hash", u.PasswordHash)

	require.Error(t, u.SetPassword(""))

	require.NoError(t, u.Delete())
	require.Error(t, u.SetPassword("another-hash"))
}
