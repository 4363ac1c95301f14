package projection_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/aggregate"
	"github.com/coreidentity/authcore/pkg/eventstore"
	"github.com/coreidentity/authcore/pkg/projection"
	"github.com/coreidentity/authcore/pkg/query"
)

func newProjectionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&query.Organization{}, &query.User{}))
	return db
}

func mustEvent(t *testing.T, aggregateType, aggregateID, eventType, instanceID string, sequence int, payload interface{}) eventstore.Event {
	t.Helper()
	raw, err := eventstore.NewPayload(payload)
	require.NoError(t, err)
	return eventstore.Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Sequence:      sequence,
		EventType:     eventType,
		Payload:       raw,
		InstanceID:    instanceID,
	}
}

func TestOrgProjector_CreateThenRename(t *testing.T) {
	db := newProjectionTestDB(t)
	p := projection.NewOrgProjector()
	ctx := context.Background()

	created := mustEvent(t, aggregate.OrganizationAggregateType, "org-1", "organization.created", "instance-1", 1,
		aggregate.OrganizationCreated{Name: "Acme", PrimaryDomain: "acme.example"})
	require.NoError(t, p.Apply(ctx, db, created))

	var row query.Organization
	require.NoError(t, db.Where("id = ?", "org-1").First(&row).Error)
	require.Equal(t, "Acme", row.Name)
	require.Equal(t, aggregate.OrgStateActive, row.State)

	renamed := mustEvent(t, aggregate.OrganizationAggregateType, "org-1", "organization.renamed", "instance-1", 2,
		aggregate.OrganizationRenamed{Name: "Acme Corp"})
	require.NoError(t, p.Apply(ctx, db, renamed))

	require.NoError(t, db.Where("id = ?", "org-1").First(&row).Error)
	require.Equal(t, "Acme Corp", row.Name)
}

func TestOrgProjector_CreateIsIdempotent(t *testing.T) {
	db := newProjectionTestDB(t)
	p := projection.NewOrgProjector()
	ctx := context.Background()

	created := mustEvent(t, aggregate.OrganizationAggregateType, "org-1", "organization.created", "instance-1", 1,
		aggregate.OrganizationCreated{Name: "Acme", PrimaryDomain: "acme.example"})

	require.NoError(t, p.Apply(ctx, db, created))
	require.NoError(t, p.Apply(ctx, db, created))

	var count int64
	require.NoError(t, db.Model(&query.Organization{}).Where("id = ?", "org-1").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestOrgProjector_DeactivateReactivate(t *testing.T) {
	db := newProjectionTestDB(t)
	p := projection.NewOrgProjector()
	ctx := context.Background()

	require.NoError(t, p.Apply(ctx, db, mustEvent(t, aggregate.OrganizationAggregateType, "org-1", "organization.created", "instance-1", 1,
		aggregate.OrganizationCreated{Name: "Acme", PrimaryDomain: "acme.example"})))
	require.NoError(t, p.Apply(ctx, db, mustEvent(t, aggregate.OrganizationAggregateType, "org-1", "organization.deactivated", "instance-1", 2, aggregate.OrganizationDeactivated{})))

	var row query.Organization
	require.NoError(t, db.Where("id = ?", "org-1").First(&row).Error)
	require.Equal(t, aggregate.OrgStateInactive, row.State)
}
