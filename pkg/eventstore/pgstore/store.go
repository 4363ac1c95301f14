// Package pgstore is a Postgres-backed eventstore.EventStore. Schema
// a single `events` table with a
// BIGSERIAL position and a unique (aggregate_type, aggregate_id,
// sequence) constraint that the database itself enforces, turning any
// racing append into a unique-violation the store maps to
// eventstore.ErrConcurrencyConflict. Pattern grounded on
// wisbric-nightowl's pgxpool-based repositories (internal/auth/pat.go).
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coreidentity/authcore/pkg/eventstore"
)

// Schema is the DDL for the events table and its tenancy index. Callers
// run this once at startup (or via a migration tool); it is exposed as
// a constant rather than executed implicitly so schema changes stay
// under migration control.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	position BIGSERIAL PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	editor TEXT NOT NULL DEFAULT '',
	resource_owner TEXT NOT NULL DEFAULT '',
	instance_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (aggregate_type, aggregate_id, sequence)
);
CREATE INDEX IF NOT EXISTS idx_events_instance_aggregate
	ON events (instance_id, aggregate_type, aggregate_id);
`

// Store is a Postgres-backed EventStore.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pgx pool. The pool's lifecycle (creation,
// connection limits) is the caller's responsibility, left to pgxpool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies Schema. Safe to call on every startup; every
// statement is idempotent (IF NOT EXISTS).
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}

// Append implements eventstore.EventStore.
func (s *Store) Append(ctx context.Context, aggregateType, aggregateID string, expectedSequence int, events ...eventstore.Event) ([]eventstore.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", eventstore.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM events WHERE aggregate_type = $1 AND aggregate_id = $2`,
		aggregateType, aggregateID,
	).Scan(&current)
	if err != nil {
		return nil, fmt.Errorf("reading current sequence: %w", err)
	}

	if expectedSequence >= 0 && current != expectedSequence {
		return nil, fmt.Errorf("%w: aggregate %s/%s expected sequence %d, got %d",
			eventstore.ErrConcurrencyConflict, aggregateType, aggregateID, expectedSequence, current)
	}

	persisted := make([]eventstore.Event, len(events))
	for i, e := range events {
		current++
		row := tx.QueryRow(ctx,
			`INSERT INTO events (aggregate_type, aggregate_id, sequence, event_type, payload, editor, resource_owner, instance_id)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 RETURNING position, created_at`,
			aggregateType, aggregateID, current, e.EventType, []byte(e.Payload), e.Editor, e.ResourceOwner, e.InstanceID,
		)
		e.AggregateType = aggregateType
		e.AggregateID = aggregateID
		e.Sequence = current
		if err := row.Scan(&e.Position, &e.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, fmt.Errorf("%w: %v", eventstore.ErrConcurrencyConflict, err)
			}
			return nil, fmt.Errorf("inserting event: %w", err)
		}
		persisted[i] = e
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %v", eventstore.ErrConcurrencyConflict, err)
		}
		return nil, fmt.Errorf("committing append: %w", err)
	}

	return persisted, nil
}

// buildWhere renders filter into a parameterized WHERE clause. Always
// requires instance_id scoping when InstanceIDs is non-empty — the
// caller is responsible for never issuing an unscoped production query.
func buildWhere(filter eventstore.Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if len(filter.InstanceIDs) > 0 {
		add("instance_id = ANY($%d)", filter.InstanceIDs)
	}
	if len(filter.AggregateTypes) > 0 {
		add("aggregate_type = ANY($%d)", filter.AggregateTypes)
	}
	if len(filter.AggregateIDs) > 0 {
		add("aggregate_id = ANY($%d)", filter.AggregateIDs)
	}
	if len(filter.EventTypes) > 0 {
		add("event_type = ANY($%d)", filter.EventTypes)
	}
	if filter.Editor != "" {
		add("editor = $%d", filter.Editor)
	}
	if !filter.CreatedAfter.IsZero() {
		add("created_at > $%d", filter.CreatedAfter)
	}
	if !filter.CreatedBefore.IsZero() {
		add("created_at < $%d", filter.CreatedBefore)
	}
	if filter.PositionAfter > 0 {
		add("position > $%d", filter.PositionAfter)
	}
	if filter.PositionBefore > 0 {
		add("position < $%d", filter.PositionBefore)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) scanEvents(rows pgx.Rows) ([]eventstore.Event, error) {
	defer rows.Close()

	var result []eventstore.Event
	for rows.Next() {
		var e eventstore.Event
		var payload []byte
		if err := rows.Scan(&e.Position, &e.AggregateType, &e.AggregateID, &e.Sequence,
			&e.EventType, &payload, &e.Editor, &e.ResourceOwner, &e.InstanceID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		result = append(result, e)
	}
	return result, rows.Err()
}

// Query implements eventstore.EventStore.
func (s *Store) Query(ctx context.Context, filter eventstore.Filter) ([]eventstore.Event, error) {
	where, args := buildWhere(filter)
	query := `SELECT position, aggregate_type, aggregate_id, sequence, event_type, payload, editor, resource_owner, instance_id, created_at
	          FROM events ` + where + ` ORDER BY position ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return s.scanEvents(rows)
}

// LatestPosition implements eventstore.EventStore.
func (s *Store) LatestPosition(ctx context.Context, filter eventstore.Filter) (int64, error) {
	where, args := buildWhere(filter)
	var latest *int64
	err := s.pool.QueryRow(ctx, `SELECT MAX(position) FROM events `+where, args...).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("reading latest position: %w", err)
	}
	if latest == nil {
		return 0, nil
	}
	return *latest, nil
}

// LatestEvent implements eventstore.EventStore.
func (s *Store) LatestEvent(ctx context.Context, instanceID, aggregateType, aggregateID string) (eventstore.Event, bool, error) {
	events, err := s.Query(ctx, eventstore.Filter{
		InstanceIDs:    []string{instanceID},
		AggregateTypes: []string{aggregateType},
		AggregateIDs:   []string{aggregateID},
	})
	if err != nil {
		return eventstore.Event{}, false, err
	}
	if len(events) == 0 {
		return eventstore.Event{}, false, nil
	}
	return events[len(events)-1], true, nil
}

// Count implements eventstore.EventStore.
func (s *Store) Count(ctx context.Context, filter eventstore.Filter) (int64, error) {
	where, args := buildWhere(filter)
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

// EventsAfterPosition implements eventstore.EventStore.
func (s *Store) EventsAfterPosition(ctx context.Context, position int64, limit int, filter eventstore.Filter) ([]eventstore.Event, error) {
	filter.PositionAfter = position
	filter.Limit = limit
	return s.Query(ctx, filter)
}

// DistinctInstanceIDs implements eventstore.EventStore.
func (s *Store) DistinctInstanceIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT instance_id FROM events ORDER BY instance_id`)
	if err != nil {
		return nil, fmt.Errorf("listing instance ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close implements eventstore.EventStore.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
