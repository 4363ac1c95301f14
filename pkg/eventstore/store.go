package eventstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConcurrencyConflict is returned when expectedSequence does not
	// match the aggregate's current sequence at append time. Callers
	// MUST reload the aggregate and retry.
	ErrConcurrencyConflict = errors.New("eventstore: concurrency conflict")

	// ErrEventNotFound reports that a requested event does not exist. No
	// EventStore method returns it; LatestEvent reports absence through
	// its bool result.
	ErrEventNotFound = errors.New("eventstore: event not found")

	// ErrInvalidEvent is returned when an appended event fails basic
	// structural validation (missing aggregate id, mismatched type, ...).
	ErrInvalidEvent = errors.New("eventstore: invalid event")

	// ErrUnavailable wraps connection-level failures. Retriable.
	ErrUnavailable = errors.New("eventstore: unavailable")
)

// Filter composes query predicates by AND. Every EventStore
// implementation MUST treat a non-empty InstanceIDs as mandatory
// tenant scoping — omitting it is a bug.
type Filter struct {
	InstanceIDs    []string
	AggregateTypes []string
	AggregateIDs   []string
	EventTypes     []string
	Editor         string
	CreatedAfter   time.Time
	CreatedBefore  time.Time
	PositionAfter  int64
	PositionBefore int64
	Limit          int
}

// EventStore is the append-only, ordered log of domain events (C1).
// Implementations MUST be safe for concurrent use.
type EventStore interface {
	// Append persists one or more events belonging to a single
	// aggregate atomically. If expectedSequence >= 0, the first
	// event's Sequence must equal expectedSequence+1 or the call fails
	// with ErrConcurrencyConflict. expectedSequence < 0 skips the
	// check. On success, events are assigned their Position and
	// CreatedAt by the store.
	Append(ctx context.Context, aggregateType, aggregateID string, expectedSequence int, events ...Event) ([]Event, error)

	// Query returns events matching filter ordered by Position ASC.
	Query(ctx context.Context, filter Filter) ([]Event, error)

	// LatestPosition returns the highest Position matching filter, or
	// 0 if none match.
	LatestPosition(ctx context.Context, filter Filter) (int64, error)

	// LatestEvent returns the most recent event for the aggregate, or
	// (Event{}, false, nil) if the aggregate has no events.
	LatestEvent(ctx context.Context, instanceID, aggregateType, aggregateID string) (Event, bool, error)

	// Count returns the number of events matching filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// EventsAfterPosition is a cursor-style scan used by projections:
	// returns up to limit events with Position > position, ordered by
	// Position ASC, matching the rest of filter.
	EventsAfterPosition(ctx context.Context, position int64, limit int, filter Filter) ([]Event, error)

	// DistinctInstanceIDs enumerates every tenant that has at least
	// one event in the store.
	DistinctInstanceIDs(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}
