package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/aggregate"
)

func TestApplication_CreateChangeDeactivateReactivate(t *testing.T) {
	a := aggregate.NewApplicationAggregate("instance-1", "app-1")

	require.NoError(t, a.CreateApplication("project-1", "Web App", "client-abc", []string{"https://app.example/callback"}))
	require.True(t, a.Active)
	require.Equal(t, "client-abc", a.ClientID)

	require.NoError(t, a.ChangeRedirectURIs([]string{"https://app.example/callback", "https://app.example/callback2"}))
	require.Len(t, a.RedirectURIs, 2)

	require.NoError(t, a.Deactivate())
	require.False(t, a.Active)

	require.NoError(t, a.Reactivate())
	require.True(t, a.Active)
}

func TestApplication_CreateRequiresRedirectURI(t *testing.T) {
	a := aggregate.NewApplicationAggregate("instance-1", "app-1")
	require.Error(t, a.CreateApplication("project-1", "Web App", "client-abc", nil))
}

func TestApplication_CreateRequiresClientID(t *testing.T) {
	a := aggregate.NewApplicationAggregate("instance-1", "app-1")
	require.Error(t, a.CreateApplication("project-1", "Web App", "", []string{"https://app.example/callback"}))
}

func TestApplication_DeactivateIsIdempotent(t *testing.T) {
	a := aggregate.NewApplicationAggregate("instance-1", "app-1")
	require.NoError(t, a.CreateApplication("project-1", "Web App", "client-abc", []string{"https://app.example/callback"}))
	require.NoError(t, a.Deactivate())
	require.NoError(t, a.Deactivate())
	require.False(t, a.Active)
}
