package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/aggregate"
)

const testOrgID = "11111111-1111-4111-8111-111111111111"

func TestOrganization_CreateRenameDeactivateReactivate(t *testing.T) {
	org := aggregate.NewOrganizationAggregate("instance-1", testOrgID)

	require.NoError(t, org.CreateOrganization("Acme", "acme.example"))
	require.Equal(t, aggregate.OrgStateActive, org.State)
	require.Equal(t, "Acme", org.Name)
	require.Len(t, org.UncommittedEvents(), 1)

	require.NoError(t, org.Rename("Acme Corp"))
	require.Equal(t, "Acme Corp", org.Name)

	require.NoError(t, org.Deactivate())
	require.Equal(t, aggregate.OrgStateInactive, org.State)

	require.NoError(t, org.Reactivate())
	require.Equal(t, aggregate.OrgStateActive, org.State)

	require.Len(t, org.UncommittedEvents(), 4)
	require.Equal(t, 4, org.Sequence())
}

func TestOrganization_LoadFromHistory(t *testing.T) {
	org := aggregate.NewOrganizationAggregate("instance-1", testOrgID)
	require.NoError(t, org.CreateOrganization("Acme", "acme.example"))
	require.NoError(t, org.Rename("Acme Corp"))
	events := org.UncommittedEvents()

	replayed := aggregate.NewOrganizationAggregate("instance-1", testOrgID)
	replayed.LoadFromHistory(events)

	require.Equal(t, "Acme Corp", replayed.Name)
	require.Equal(t, 2, replayed.Sequence())
	require.Empty(t, replayed.UncommittedEvents())
}

func TestOrganization_CreateTwiceFails(t *testing.T) {
	org := aggregate.NewOrganizationAggregate("instance-1", testOrgID)
	require.NoError(t, org.CreateOrganization("Acme", "acme.example"))
	require.Error(t, org.CreateOrganization("Acme Again", "acme2.example"))
}
