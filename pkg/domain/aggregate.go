package domain

//go:generate moq -out mocks/aggregate_root_mock.go . AggregateRoot
//go:generate moq -out mocks/repository_mock.go . Repository

import "context"

// AggregateRoot is the interface every event-sourced aggregate (C2)
// implements. State is never mutated directly; business methods apply
// events, and LoadFromHistory replays them to reconstruct state.
type AggregateRoot interface {
	// ID returns the aggregate's unique identifier.
	ID() string

	// AggregateType returns the aggregate type, e.g. "user", "org".
	// Together with ID this forms the (type, id) identity the event
	// store keys events by.
	AggregateType() string

	// Sequence returns the current sequence number: the count of
	// events applied to this aggregate so far.
	Sequence() int

	// UncommittedEvents returns events generated by business methods
	// but not yet persisted.
	UncommittedEvents() []Event

	// MarkEventsAsCommitted clears uncommitted events after a
	// successful Repository.Save.
	MarkEventsAsCommitted()

	// LoadFromHistory reconstructs state by applying events in order.
	// Must not generate new events or mutate uncommitted event state.
	LoadFromHistory(events []Event)
}

// Repository loads and saves aggregates by replaying/appending their
// event stream (C2). It never writes directly — Save delegates to the
// event store with optimistic concurrency control derived from the
// aggregate's sequence at load time. Every operation is scoped by
// instanceID, the tenancy root every event row carries.
type Repository[T AggregateRoot] interface {
	// Save persists uncommitted events under resourceOwner, failing
	// with a concurrency error (wrapping domain.ConcurrencyError) if
	// another writer appended to the same aggregate since it was
	// loaded.
	Save(ctx context.Context, instanceID, resourceOwner string, aggregate T) error

	// Load reconstructs the aggregate from its event stream. Returns
	// ErrNotFound if no events exist for id within instanceID.
	Load(ctx context.Context, instanceID, id string) (T, error)

	// Exists reports whether any events exist for id within instanceID.
	Exists(ctx context.Context, instanceID, id string) (bool, error)
}
