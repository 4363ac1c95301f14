package gormstore_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/eventstore"
	"github.com/coreidentity/authcore/pkg/eventstore/gormstore"
)

func newStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	store, err := gormstore.New(db)
	require.NoError(t, err)
	return store
}

func TestStore_AppendAssignsSequenceAndPosition(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	persisted, err := store.Append(ctx, "organization", "org-1", 0,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-1", Payload: []byte(`{}`)},
		eventstore.Event{EventType: "organization.renamed", InstanceID: "instance-1", Payload: []byte(`{}`)},
	)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	require.Equal(t, 1, persisted[0].Sequence)
	require.Equal(t, 2, persisted[1].Sequence)
	require.Greater(t, persisted[1].Position, persisted[0].Position)
}

func TestStore_AppendRejectsConcurrencyConflict(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "organization", "org-1", 0,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-1", Payload: []byte(`{}`)})
	require.NoError(t, err)

	_, err = store.Append(ctx, "organization", "org-1", 0,
		eventstore.Event{EventType: "organization.renamed", InstanceID: "instance-1", Payload: []byte(`{}`)})
	require.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func TestStore_AppendSkipsSequenceCheckWhenNegative(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "organization", "org-1", -1,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-1", Payload: []byte(`{}`)})
	require.NoError(t, err)

	_, err = store.Append(ctx, "organization", "org-1", -1,
		eventstore.Event{EventType: "organization.renamed", InstanceID: "instance-1", Payload: []byte(`{}`)})
	require.NoError(t, err)
}

func TestStore_EventsAfterPosition(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "organization", "org-1", 0,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-1", Payload: []byte(`{}`)},
		eventstore.Event{EventType: "organization.renamed", InstanceID: "instance-1", Payload: []byte(`{}`)},
		eventstore.Event{EventType: "organization.renamed", InstanceID: "instance-1", Payload: []byte(`{}`)},
	)
	require.NoError(t, err)

	events, err := store.EventsAfterPosition(ctx, 0, 10, eventstore.Filter{InstanceIDs: []string{"instance-1"}})
	require.NoError(t, err)
	require.Len(t, events, 3)

	events, err = store.EventsAfterPosition(ctx, events[0].Position, 10, eventstore.Filter{InstanceIDs: []string{"instance-1"}})
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestStore_DistinctInstanceIDs(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "organization", "org-1", 0,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-1", Payload: []byte(`{}`)})
	require.NoError(t, err)
	_, err = store.Append(ctx, "organization", "org-2", 0,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-2", Payload: []byte(`{}`)})
	require.NoError(t, err)

	ids, err := store.DistinctInstanceIDs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"instance-1", "instance-2"}, ids)
}

func TestStore_LatestEvent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, found, err := store.LatestEvent(ctx, "instance-1", "organization", "org-1")
	require.NoError(t, err)
	require.False(t, found)

	_, err = store.Append(ctx, "organization", "org-1", 0,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-1", Payload: []byte(`{}`)},
		eventstore.Event{EventType: "organization.renamed", InstanceID: "instance-1", Payload: []byte(`{}`)},
	)
	require.NoError(t, err)

	latest, found, err := store.LatestEvent(ctx, "instance-1", "organization", "org-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "organization.renamed", latest.EventType)
}

func TestStore_Count(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "organization", "org-1", 0,
		eventstore.Event{EventType: "organization.created", InstanceID: "instance-1", Payload: []byte(`{}`)})
	require.NoError(t, err)

	count, err := store.Count(ctx, eventstore.Filter{InstanceIDs: []string{"instance-1"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
