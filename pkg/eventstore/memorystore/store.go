// Package memorystore is an in-memory eventstore.EventStore, useful for
// tests and local development. It is not durable across restarts.
// Grounded on pkg/eventsourcing/infrastructure/memory_store.go,
// generalized with a global monotonic position and multi-tenant filters.
package memorystore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coreidentity/authcore/pkg/eventstore"
)

type aggregateKey struct {
	aggregateType string
	aggregateID   string
}

// Store is an in-memory implementation of eventstore.EventStore.
type Store struct {
	mu         sync.RWMutex
	all        []eventstore.Event // ordered by Position ASC
	sequences  map[aggregateKey]int
	nextPos    int64
}

// New creates an empty in-memory event store.
func New() *Store {
	return &Store{sequences: make(map[aggregateKey]int)}
}

// Append implements eventstore.EventStore.
func (s *Store) Append(ctx context.Context, aggregateType, aggregateID string, expectedSequence int, events ...eventstore.Event) ([]eventstore.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := aggregateKey{aggregateType, aggregateID}
	current := s.sequences[key]

	if expectedSequence >= 0 && current != expectedSequence {
		return nil, fmt.Errorf("%w: aggregate %s/%s expected sequence %d, got %d",
			eventstore.ErrConcurrencyConflict, aggregateType, aggregateID, expectedSequence, current)
	}

	for _, e := range events {
		if (e.AggregateID != "" && e.AggregateID != aggregateID) ||
			(e.AggregateType != "" && e.AggregateType != aggregateType) {
			return nil, fmt.Errorf("%w: aggregate mismatch", eventstore.ErrInvalidEvent)
		}
	}

	now := time.Now().UTC()
	persisted := make([]eventstore.Event, len(events))
	for i, e := range events {
		current++
		s.nextPos++
		e.AggregateType = aggregateType
		e.AggregateID = aggregateID
		e.Sequence = current
		e.Position = s.nextPos
		e.CreatedAt = now
		persisted[i] = e
		s.all = append(s.all, e)
	}
	s.sequences[key] = current

	return persisted, nil
}

func matches(e eventstore.Event, f eventstore.Filter) bool {
	if len(f.InstanceIDs) > 0 && !contains(f.InstanceIDs, e.InstanceID) {
		return false
	}
	if len(f.AggregateTypes) > 0 && !contains(f.AggregateTypes, e.AggregateType) {
		return false
	}
	if len(f.AggregateIDs) > 0 && !contains(f.AggregateIDs, e.AggregateID) {
		return false
	}
	if len(f.EventTypes) > 0 && !contains(f.EventTypes, e.EventType) {
		return false
	}
	if f.Editor != "" && e.Editor != f.Editor {
		return false
	}
	if !f.CreatedAfter.IsZero() && e.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && e.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	if f.PositionAfter > 0 && e.Position <= f.PositionAfter {
		return false
	}
	if f.PositionBefore > 0 && e.Position >= f.PositionBefore {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// Query implements eventstore.EventStore.
func (s *Store) Query(ctx context.Context, filter eventstore.Filter) ([]eventstore.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]eventstore.Event, 0)
	for _, e := range s.all {
		if matches(e, filter) {
			result = append(result, e)
			if filter.Limit > 0 && len(result) >= filter.Limit {
				break
			}
		}
	}
	return result, nil
}

// LatestPosition implements eventstore.EventStore.
func (s *Store) LatestPosition(ctx context.Context, filter eventstore.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	for _, e := range s.all {
		if matches(e, filter) && e.Position > latest {
			latest = e.Position
		}
	}
	return latest, nil
}

// LatestEvent implements eventstore.EventStore.
func (s *Store) LatestEvent(ctx context.Context, instanceID, aggregateType, aggregateID string) (eventstore.Event, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest eventstore.Event
	found := false
	for _, e := range s.all {
		if e.InstanceID == instanceID && e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			latest = e
			found = true
		}
	}
	return latest, found, nil
}

// Count implements eventstore.EventStore.
func (s *Store) Count(ctx context.Context, filter eventstore.Filter) (int64, error) {
	events, err := s.Query(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(events)), nil
}

// EventsAfterPosition implements eventstore.EventStore.
func (s *Store) EventsAfterPosition(ctx context.Context, position int64, limit int, filter eventstore.Filter) ([]eventstore.Event, error) {
	filter.PositionAfter = position
	filter.Limit = limit
	return s.Query(ctx, filter)
}

// DistinctInstanceIDs implements eventstore.EventStore.
func (s *Store) DistinctInstanceIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, e := range s.all {
		seen[e.InstanceID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close implements eventstore.EventStore.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = nil
	s.sequences = make(map[aggregateKey]int)
	return nil
}
