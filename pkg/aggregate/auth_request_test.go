package aggregate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/aggregate"
)

func TestAuthRequest_FullLifecycle(t *testing.T) {
	r := aggregate.NewAuthRequestAggregate("instance-1", "req-1")
	expiry := time.Now().Add(10 * time.Minute)

	require.NoError(t, r.CreateAuthRequest(
		"client-abc", "https://app.example/callback", "code",
		[]string{"openid", "profile"}, "state-xyz", "nonce-abc",
		"challenge", "S256", nil, expiry,
	))
	require.Equal(t, aggregate.AuthRequestStatePending, r.Status)

	require.NoError(t, r.Authenticate("session-1", "user-1"))
	require.Equal(t, aggregate.AuthRequestStateAuthenticated, r.Status)

	require.NoError(t, r.IssueCode())
	require.Equal(t, aggregate.AuthRequestStateCodeIssued, r.Status)

	// A code is single-use: issuing again must fail.
	require.Error(t, r.IssueCode())
}

func TestAuthRequest_IssueCodeBeforeAuthenticateFails(t *testing.T) {
	r := aggregate.NewAuthRequestAggregate("instance-1", "req-1")
	expiry := time.Now().Add(10 * time.Minute)
	require.NoError(t, r.CreateAuthRequest("client-abc", "https://app.example/callback", "code", nil, "", "", "", "", nil, expiry))

	require.Error(t, r.IssueCode())
}

func TestAuthRequest_FailIsTerminal(t *testing.T) {
	r := aggregate.NewAuthRequestAggregate("instance-1", "req-1")
	expiry := time.Now().Add(10 * time.Minute)
	require.NoError(t, r.CreateAuthRequest("client-abc", "https://app.example/callback", "code", nil, "", "", "", "", nil, expiry))

	require.NoError(t, r.Fail("access_denied"))
	require.Equal(t, aggregate.AuthRequestStateFailed, r.Status)
	require.Equal(t, "access_denied", r.FailureReason)

	// Already terminal: failing again is rejected, not silently accepted.
	require.Error(t, r.Fail("access_denied"))
}

func TestAuthRequest_LoadFromHistory(t *testing.T) {
	r := aggregate.NewAuthRequestAggregate("instance-1", "req-1")
	expiry := time.Now().Add(10 * time.Minute)
	require.NoError(t, r.CreateAuthRequest("client-abc", "https://app.example/callback", "code", nil, "", "", "", "", nil, expiry))
	require.NoError(t, r.Authenticate("session-1", "user-1"))
	events := r.UncommittedEvents()

	replayed := aggregate.NewAuthRequestAggregate("instance-1", "req-1")
	replayed.LoadFromHistory(events)

	require.Equal(t, aggregate.AuthRequestStateAuthenticated, replayed.Status)
	require.Equal(t, "user-1", replayed.UserID)
	require.Equal(t, 2, replayed.Sequence())
}
