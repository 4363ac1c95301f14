// Package aggregate implements C2: loading an aggregate by replaying
// its event stream, and saving the events a command produced back
// through the store with optimistic concurrency. Grounded on
// internal/infrastructure/user_repository_event_sourcing.go,
// generalized with Go generics so one Repository type serves every
// aggregate kind instead of one hand-written repository per aggregate.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/eventstore"
)

// ErrNotFound is returned by Load when the aggregate has no events.
var ErrNotFound = domain.NewDomainError(domain.CodeNotFound, "aggregate not found", nil)

// Factory produces an empty aggregate of type T for id, ready to be
// folded against its event history.
type Factory[T domain.AggregateRoot] func(instanceID, id string) T

// Repository is a generic event-sourced domain.Repository[T]. One
// instance serves every aggregate of type T (Organization, User,
// Session, ...); the factory supplies the zero-value aggregate and its
// AggregateType().
type Repository[T domain.AggregateRoot] struct {
	store       eventstore.EventStore
	aggType     string
	newInstance Factory[T]
	log         domain.Logger
}

// New builds a Repository for aggregates of type T. aggType must match
// the AggregateType() every instance returned by factory reports.
func New[T domain.AggregateRoot](store eventstore.EventStore, aggType string, factory Factory[T], log domain.Logger) *Repository[T] {
	return &Repository[T]{store: store, aggType: aggType, newInstance: factory, log: log}
}

// Load replays every event of id (scoped to instanceID's tenant) into a
// fresh aggregate and returns it. Returns ErrNotFound when the
// aggregate has no events yet.
func (r *Repository[T]) Load(ctx context.Context, instanceID, id string) (T, error) {
	var zero T

	events, err := r.store.Query(ctx, eventstore.Filter{
		InstanceIDs:    []string{instanceID},
		AggregateTypes: []string{r.aggType},
		AggregateIDs:   []string{id},
	})
	if err != nil {
		return zero, fmt.Errorf("loading %s %s: %w", r.aggType, id, err)
	}
	if len(events) == 0 {
		return zero, ErrNotFound
	}

	agg := r.newInstance(instanceID, id)
	domainEvents := make([]domain.Event, len(events))
	for i, e := range events {
		domainEvents[i] = storeEvent{Event: e}
	}
	agg.LoadFromHistory(domainEvents)

	r.log.Debug("aggregate loaded", "type", r.aggType, "id", id, "sequence", agg.Sequence())
	return agg, nil
}

// Exists reports whether id has any recorded events.
func (r *Repository[T]) Exists(ctx context.Context, instanceID, id string) (bool, error) {
	count, err := r.store.Count(ctx, eventstore.Filter{
		InstanceIDs:    []string{instanceID},
		AggregateTypes: []string{r.aggType},
		AggregateIDs:   []string{id},
		Limit:          1,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save appends the aggregate's uncommitted events to the store, using
// its pre-mutation sequence as the optimistic-concurrency
// expectedSequence, then marks them committed. A no-op when there are
// no uncommitted events.
func (r *Repository[T]) Save(ctx context.Context, instanceID, resourceOwner string, agg T) error {
	pending := agg.UncommittedEvents()
	if len(pending) == 0 {
		r.log.Debug("no uncommitted events", "type", r.aggType, "id", agg.ID())
		return nil
	}

	expectedSequence := agg.Sequence() - len(pending)
	toPersist := make([]eventstore.Event, len(pending))
	for i, ev := range pending {
		payload, err := eventstore.NewPayload(ev)
		if err != nil {
			return domain.NewDomainError(domain.CodeInternal, "serializing event payload", err)
		}
		toPersist[i] = eventstore.Event{
			EventType:     ev.EventType(),
			Payload:       payload,
			ResourceOwner: resourceOwner,
			InstanceID:    instanceID,
		}
	}

	if _, err := r.store.Append(ctx, r.aggType, agg.ID(), expectedSequence, toPersist...); err != nil {
		r.log.Error("failed to save aggregate events", "type", r.aggType, "id", agg.ID(), "error", err)
		if errors.Is(err, eventstore.ErrConcurrencyConflict) {
			return domain.NewConcurrencyError(agg.ID(), expectedSequence, -1)
		}
		return err
	}

	agg.MarkEventsAsCommitted()
	r.log.Info("aggregate events saved", "type", r.aggType, "id", agg.ID(), "count", len(toPersist))
	return nil
}

// storeEvent adapts an eventstore.Event (the persisted, opaque-payload
// record) to the domain.Event interface aggregates fold over.
type storeEvent struct {
	eventstore.Event
}

func (s storeEvent) EventType() string   { return s.Event.EventType }
func (s storeEvent) AggregateID() string { return s.Event.AggregateID }
