package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/aggregate"
)

const testProjectID = "33333333-3333-4333-8333-333333333333"

func TestProject_CreateGrantRevoke(t *testing.T) {
	p := aggregate.NewProjectAggregate("instance-1", testProjectID)

	require.NoError(t, p.CreateProject("org-1", "Billing API"))
	require.Equal(t, "Billing API", p.Name)

	require.NoError(t, p.GrantToOrg("org-2", []string{"reader", "editor"}))
	require.Equal(t, []string{"reader", "editor"}, p.Grants["org-2"])

	require.NoError(t, p.RevokeGrant("org-2"))
	_, ok := p.Grants["org-2"]
	require.False(t, ok)

	// Revoking a nonexistent grant is a no-op, not an error.
	require.NoError(t, p.RevokeGrant("org-3"))
}

func TestProject_CreateTwiceFails(t *testing.T) {
	p := aggregate.NewProjectAggregate("instance-1", testProjectID)
	require.NoError(t, p.CreateProject("org-1", "Billing API"))
	require.Error(t, p.CreateProject("org-1", "Billing API Again"))
}

func TestProject_GrantRequiresOrgID(t *testing.T) {
	p := aggregate.NewProjectAggregate("instance-1", testProjectID)
	require.NoError(t, p.CreateProject("org-1", "Billing API"))
	require.Error(t, p.GrantToOrg("", []string{"reader"}))
}

func TestProject_LoadFromHistory(t *testing.T) {
	p := aggregate.NewProjectAggregate("instance-1", testProjectID)
	require.NoError(t, p.CreateProject("org-1", "Billing API"))
	require.NoError(t, p.GrantToOrg("org-2", []string{"reader"}))
	events := p.UncommittedEvents()

	replayed := aggregate.NewProjectAggregate("instance-1", testProjectID)
	replayed.LoadFromHistory(events)

	require.Equal(t, "Billing API", replayed.Name)
	require.Equal(t, []string{"reader"}, replayed.Grants["org-2"])
	require.Equal(t, 2, replayed.Sequence())
}
