// Package projection implements C3: the engine that consumes the
// event log and applies per-projection handlers to materialize the
// denormalized read tables pkg/query serves. Grounded on the
// pattern-matching, parallel-fanout EventDispatcher
// (pkg/eventsourcing/domain/dispatcher.go) and its Watermill wiring
// (pkg/infrastructure/eventdispatcher.go), generalized from an
// at-dispatch-time push model into a bookmarked pull loop so
// projections can be rebuilt by resetting their bookmark.
package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/eventstore"
)

// Bookmark records the highest event position a projection has
// consumed for a given (instance, aggregate type) partition, per
// a Projection's definition.
type Bookmark struct {
	ProjectionName string `gorm:"primaryKey"`
	InstanceID     string `gorm:"primaryKey"`
	AggregateType  string `gorm:"primaryKey"`
	LastPosition   int64
}

// TableName implements gorm's Tabler.
func (Bookmark) TableName() string { return "projection_bookmarks" }

// FailedEvent is an at-least-once retry record.
type FailedEvent struct {
	ID             uint `gorm:"primaryKey"`
	ProjectionName string
	AggregateType  string
	AggregateID    string
	EventSequence  int
	FailureCount   int
	LastError      string
	LastFailedAt   time.Time
}

// TableName implements gorm's Tabler.
func (FailedEvent) TableName() string { return "failed_events" }

// Handler defines one projection: the event types it consumes and the
// pure read-modify-write it performs against its own tables for each
// event. Apply runs inside the same transaction that advances the
// bookmark (the idempotence contract) — implementations MUST
// use upserts keyed by aggregate id + sequence so at-least-once retry
// never double-applies a side effect.
type Handler interface {
	// Name uniquely identifies the projection; used as the bookmark
	// and failed_events key.
	Name() string

	// AggregateTypes lists the aggregate types this projection
	// maintains its own bookmark partition for.
	AggregateTypes() []string

	// EventTypes lists the event types Apply knows how to handle.
	// Events of other types matching AggregateTypes are skipped (and
	// still advance the bookmark) without being recorded as failures.
	EventTypes() []string

	// Apply materializes the effect of event into the projection's
	// tables using tx.
	Apply(ctx context.Context, tx *gorm.DB, event eventstore.Event) error
}

// Exporter receives every batch of events a partition poll advances
// past, synchronously, after the handler has applied it and the
// bookmark has been saved. Implemented by
// pkg/eventstore/analytics.Sink; kept as a narrow interface here so
// the engine doesn't import the cloud SDKs that package pulls in.
type Exporter interface {
	Export(ctx context.Context, events []eventstore.Event)
}

// Engine runs every registered Handler's poll loop. Each loop is an
// independent goroutine managed by the caller's fx.Lifecycle hook.
type Engine struct {
	store            eventstore.EventStore
	db               *gorm.DB
	log              domain.Logger
	publisher        message.Publisher
	exporter         Exporter
	handlers         []Handler
	batchSize        int
	pollInterval     time.Duration
	failureThreshold int
	onEscalate       func(projection string, failed FailedEvent)
	metrics          *metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize overrides the default event batch size per poll.
func WithBatchSize(n int) Option { return func(e *Engine) { e.batchSize = n } }

// WithPollInterval overrides the default interval between polls when a
// projection is caught up.
func WithPollInterval(d time.Duration) Option { return func(e *Engine) { e.pollInterval = d } }

// WithFailureThreshold sets the failure_count at which onEscalate
// fires (a configurable threshold escalates to
// alert/stop").
func WithFailureThreshold(n int, onEscalate func(projection string, failed FailedEvent)) Option {
	return func(e *Engine) {
		e.failureThreshold = n
		e.onEscalate = onEscalate
	}
}

// WithMetricsRegisterer registers the engine's Prometheus counters
// against reg instead of leaving metrics disabled.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = newMetrics(reg) }
}

// WithExporter feeds every advanced batch of events to exp, in
// addition to (not instead of) the registered projection handlers.
func WithExporter(exp Exporter) Option {
	return func(e *Engine) { e.exporter = exp }
}

// New builds an Engine. db must already have Bookmark and FailedEvent
// migrated (or AutoMigrate them via NewEngine's caller).
func New(store eventstore.EventStore, db *gorm.DB, publisher message.Publisher, log domain.Logger, handlers []Handler, opts ...Option) *Engine {
	e := &Engine{
		store:            store,
		db:               db,
		publisher:        publisher,
		log:              log,
		handlers:         handlers,
		batchSize:        200,
		pollInterval:     500 * time.Millisecond,
		failureThreshold: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives every handler's poll loop concurrently until ctx is
// canceled, matching the errgroup-based parallel fan-out in
// pkg/eventsourcing/domain/dispatcher.go's Dispatch.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range e.handlers {
		h := h
		g.Go(func() error {
			return e.runHandlerLoop(gctx, h)
		})
	}
	return g.Wait()
}

func (e *Engine) runHandlerLoop(ctx context.Context, h Handler) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, instanceID := range e.instancesFor(ctx) {
				for _, aggType := range h.AggregateTypes() {
					if err := e.processPartition(ctx, h, instanceID, aggType); err != nil {
						e.log.Error("projection partition failed", "projection", h.Name(), "instance", instanceID, "aggregateType", aggType, "error", err)
					}
				}
			}
		}
	}
}

func (e *Engine) instancesFor(ctx context.Context) []string {
	ids, err := e.store.DistinctInstanceIDs(ctx)
	if err != nil {
		e.log.Warn("failed to enumerate instances", "error", err)
		return nil
	}
	return ids
}

// processPartition advances one (projection, instance, aggregate type)
// partition by at most one batch.
func (e *Engine) processPartition(ctx context.Context, h Handler, instanceID, aggregateType string) error {
	var bookmark Bookmark
	err := e.db.WithContext(ctx).
		Where(Bookmark{ProjectionName: h.Name(), InstanceID: instanceID, AggregateType: aggregateType}).
		Attrs(Bookmark{LastPosition: 0}).
		FirstOrCreate(&bookmark).Error
	if err != nil {
		return fmt.Errorf("loading bookmark: %w", err)
	}

	events, err := e.store.EventsAfterPosition(ctx, bookmark.LastPosition, e.batchSize, eventstore.Filter{
		InstanceIDs:    []string{instanceID},
		AggregateTypes: []string{aggregateType},
	})
	if err != nil {
		return fmt.Errorf("reading events after position: %w", err)
	}

	wanted := toSet(h.EventTypes())
	for _, event := range events {
		if err := e.applyOne(ctx, h, event, wanted); err != nil {
			return err
		}
		bookmark.LastPosition = event.Position
	}

	if len(events) > 0 {
		if err := e.db.WithContext(ctx).Save(&bookmark).Error; err != nil {
			return fmt.Errorf("advancing bookmark: %w", err)
		}
		if e.publisher != nil {
			e.publishProgress(h.Name(), instanceID, aggregateType, bookmark.LastPosition)
		}
		if e.exporter != nil {
			e.exporter.Export(ctx, events)
		}
	}
	return nil
}

// applyOne applies a single event inside its own transaction, which
// also advances the bookmark — the transactional coupling idempotence
// relies on. Errors are recorded in failed_events
// rather than returned, so the partition's poll loop keeps moving.
func (e *Engine) applyOne(ctx context.Context, h Handler, event eventstore.Event, wanted map[string]struct{}) error {
	if _, ok := wanted[event.EventType]; !ok {
		return nil
	}

	var bm Bookmark
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if applyErr := h.Apply(ctx, tx, event); applyErr != nil {
			return applyErr
		}
		return tx.Where(Bookmark{ProjectionName: h.Name(), InstanceID: event.InstanceID, AggregateType: event.AggregateType}).
			Assign(Bookmark{LastPosition: event.Position}).
			FirstOrCreate(&bm).Error
	})
	if err != nil {
		e.recordFailure(ctx, h.Name(), event, err)
		return nil
	}
	if e.metrics != nil {
		e.metrics.eventsApplied.WithLabelValues(h.Name()).Inc()
	}
	return nil
}

func (e *Engine) recordFailure(ctx context.Context, projection string, event eventstore.Event, applyErr error) {
	var failed FailedEvent
	err := e.db.WithContext(ctx).
		Where(FailedEvent{ProjectionName: projection, AggregateType: event.AggregateType, AggregateID: event.AggregateID, EventSequence: event.Sequence}).
		Attrs(FailedEvent{FailureCount: 0}).
		FirstOrCreate(&failed).Error
	if err != nil {
		e.log.Error("failed to record failed_events row", "projection", projection, "error", err)
		return
	}

	failed.FailureCount++
	failed.LastError = applyErr.Error()
	failed.LastFailedAt = time.Now().UTC()
	if err := e.db.WithContext(ctx).Save(&failed).Error; err != nil {
		e.log.Error("failed to update failed_events row", "projection", projection, "error", err)
		return
	}

	e.log.Warn("projection apply failed", "projection", projection, "aggregateId", event.AggregateID, "sequence", event.Sequence, "failureCount", failed.FailureCount, "error", applyErr)

	if e.metrics != nil {
		e.metrics.eventsFailed.WithLabelValues(projection).Inc()
	}

	if e.onEscalate != nil && failed.FailureCount >= e.failureThreshold {
		e.onEscalate(projection, failed)
	}
}

func (e *Engine) publishProgress(projection, instanceID, aggregateType string, position int64) {
	topic := fmt.Sprintf("projection.%s.%s.%s", projection, instanceID, aggregateType)
	msg := message.NewMessage(fmt.Sprintf("%s-%d", topic, position), []byte(fmt.Sprintf("%d", position)))
	if err := e.publisher.Publish(topic, msg); err != nil {
		e.log.Warn("failed to publish projection progress", "topic", topic, "error", err)
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Rebuild clears a projection's own tables (caller-provided, via
// truncate) and resets its bookmarks to zero, triggering a full replay
// on the next poll.
func (e *Engine) Rebuild(ctx context.Context, h Handler) error {
	if e.metrics != nil {
		e.metrics.rebuildsTotal.WithLabelValues(h.Name()).Inc()
	}
	return e.db.WithContext(ctx).
		Where("projection_name = ?", h.Name()).
		Delete(&Bookmark{}).Error
}
