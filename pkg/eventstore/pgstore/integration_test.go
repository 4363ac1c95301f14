//go:build integration

package pgstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coreidentity/authcore/pkg/eventstore"
	"github.com/coreidentity/authcore/pkg/eventstore/pgstore"
)

// setupPostgresContainer starts a disposable Postgres instance for the
// store's integration test, the same shape as the pack's Redis
// container helper: GenericContainer with an explicit wait strategy,
// torn down via t.Cleanup.
func setupPostgresContainer(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "authcore",
			"POSTGRES_PASSWORD": "authcore",
			"POSTGRES_DB":       "authcore",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections"),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "postgres://authcore:authcore@" + host + ":" + port.Port() + "/authcore?sslmode=disable"
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "failed to connect to postgres container")
	t.Cleanup(pool.Close)

	require.NoError(t, pgstore.Migrate(ctx, pool))
	return pool
}

// TestStore_AppendAndQueryRoundTripAgainstRealPostgres exercises the
// unique-violation-to-ErrConcurrencyConflict mapping and tenant-scoped
// Query against an actual Postgres instance, not sqlite, so the
// BIGSERIAL/UNIQUE constraint behavior under test matches production.
func TestStore_AppendAndQueryRoundTripAgainstRealPostgres(t *testing.T) {
	pool := setupPostgresContainer(t)
	store := pgstore.New(pool)
	ctx := context.Background()

	event := eventstore.Event{
		AggregateType: "user",
		AggregateID:   "user-1",
		Sequence:      1,
		EventType:     "user.created",
		Payload:       []byte(`{"username":"alice"}`),
		InstanceID:    "instance-1",
	}

	appended, err := store.Append(ctx, "user", "user-1", 0, event)
	require.NoError(t, err)
	require.Len(t, appended, 1)
	require.Greater(t, appended[0].Position, int64(0))

	_, err = store.Append(ctx, "user", "user-1", 0, event)
	require.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)

	events, err := store.Query(ctx, eventstore.Filter{InstanceIDs: []string{"instance-1"}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "user.created", events[0].EventType)
}
