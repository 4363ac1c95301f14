package aggregate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/aggregate"
)

const testSessionID = "44444444-4444-4444-8444-444444444444"

func TestSession_CreateExtendTerminate(t *testing.T) {
	s := aggregate.NewSessionAggregate("instance-1", testSessionID)

	require.NoError(t, s.CreateSession("user-1", nil))
	require.Equal(t, aggregate.SessionStateActive, s.State)
	require.True(t, s.IsActive(time.Now()))

	future := time.Now().Add(time.Hour)
	require.NoError(t, s.ExtendExpiry(&future))
	require.True(t, s.IsActive(time.Now()))

	require.NoError(t, s.Terminate())
	require.Equal(t, aggregate.SessionStateTerminated, s.State)
	require.False(t, s.IsActive(time.Now()))

	// Terminating twice is a no-op, not an error.
	require.NoError(t, s.Terminate())
}

func TestSession_ExtendAfterTerminateFails(t *testing.T) {
	s := aggregate.NewSessionAggregate("instance-1", testSessionID)
	require.NoError(t, s.CreateSession("user-1", nil))
	require.NoError(t, s.Terminate())

	future := time.Now().Add(time.Hour)
	require.Error(t, s.ExtendExpiry(&future))
}

func TestSession_IsActiveReflectsExpiry(t *testing.T) {
	s := aggregate.NewSessionAggregate("instance-1", testSessionID)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, s.CreateSession("user-1", &past))

	// Still ACTIVE in state, but expired: IsActive reads it as inactive
	// without rewriting the row.
	require.Equal(t, aggregate.SessionStateActive, s.State)
	require.False(t, s.IsActive(time.Now()))
}
