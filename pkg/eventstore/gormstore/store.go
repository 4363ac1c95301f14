// Package gormstore is the development/test EventStore backend: a
// GORM model over github.com/glebarez/sqlite (pure-Go, no cgo),
// mirroring pkg/infrastructure/database.go's dialector
// switch and internal/infrastructure/user_read_model_gorm.go's gorm
// model conventions. Production deployments use pkg/eventstore/pgstore
// instead; this backend exists so the whole module runs against a
// single-file sqlite database with no external services.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coreidentity/authcore/pkg/eventstore"
)

// eventRow is the GORM-mapped row backing the events table.
type eventRow struct {
	Position      int64 `gorm:"primaryKey;autoIncrement"`
	AggregateType string `gorm:"index:idx_gormstore_aggregate,priority:2;uniqueIndex:idx_gormstore_unique_seq,priority:1"`
	AggregateID   string `gorm:"index:idx_gormstore_aggregate,priority:3;uniqueIndex:idx_gormstore_unique_seq,priority:2"`
	Sequence      int    `gorm:"uniqueIndex:idx_gormstore_unique_seq,priority:3"`
	EventType     string
	Payload       []byte
	Editor        string
	ResourceOwner string
	InstanceID    string `gorm:"index:idx_gormstore_aggregate,priority:1"`
	CreatedAt     time.Time
}

func (eventRow) TableName() string { return "events" }

// Store is an EventStore backed by a gorm.DB (sqlite in dev/test,
// usable against any gorm dialector).
type Store struct {
	db *gorm.DB
}

// New builds a Store and migrates its schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&eventRow{}); err != nil {
		return nil, fmt.Errorf("migrating events table: %w", err)
	}
	return &Store{db: db}, nil
}

// Append implements eventstore.EventStore.Append.
func (s *Store) Append(ctx context.Context, aggregateType, aggregateID string, expectedSequence int, events ...eventstore.Event) ([]eventstore.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var persisted []eventstore.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current struct{ Max int }
		if err := tx.Model(&eventRow{}).
			Select("COALESCE(MAX(sequence), 0) as max").
			Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID).
			Scan(&current).Error; err != nil {
			return fmt.Errorf("reading current sequence: %w", err)
		}

		if expectedSequence >= 0 && current.Max != expectedSequence {
			return eventstore.ErrConcurrencyConflict
		}

		rows := make([]eventRow, len(events))
		now := time.Now()
		for i, e := range events {
			rows[i] = eventRow{
				AggregateType: aggregateType,
				AggregateID:   aggregateID,
				Sequence:      current.Max + i + 1,
				EventType:     e.EventType,
				Payload:       e.Payload,
				Editor:        e.Editor,
				ResourceOwner: e.ResourceOwner,
				InstanceID:    e.InstanceID,
				CreatedAt:     now,
			}
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		if res.Error != nil {
			return mapWriteError(res.Error)
		}
		if res.RowsAffected != int64(len(rows)) {
			return eventstore.ErrConcurrencyConflict
		}

		persisted = make([]eventstore.Event, len(rows))
		for i, r := range rows {
			persisted[i] = toEvent(r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return persisted, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("appending events: %w", err)
}

// Query implements eventstore.EventStore.Query.
func (s *Store) Query(ctx context.Context, filter eventstore.Filter) ([]eventstore.Event, error) {
	var rows []eventRow
	tx := applyFilter(s.db.WithContext(ctx), filter).Order("position ASC")
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return toEvents(rows), nil
}

// LatestPosition implements eventstore.EventStore.LatestPosition.
func (s *Store) LatestPosition(ctx context.Context, filter eventstore.Filter) (int64, error) {
	var result struct{ Max int64 }
	tx := applyFilter(s.db.WithContext(ctx), filter)
	if err := tx.Model(&eventRow{}).Select("COALESCE(MAX(position), 0) as max").Scan(&result).Error; err != nil {
		return 0, fmt.Errorf("reading latest position: %w", err)
	}
	return result.Max, nil
}

// LatestEvent implements eventstore.EventStore.LatestEvent.
func (s *Store) LatestEvent(ctx context.Context, instanceID, aggregateType, aggregateID string) (eventstore.Event, bool, error) {
	var row eventRow
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND aggregate_type = ? AND aggregate_id = ?", instanceID, aggregateType, aggregateID).
		Order("position DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return eventstore.Event{}, false, nil
	}
	if err != nil {
		return eventstore.Event{}, false, fmt.Errorf("reading latest event: %w", err)
	}
	return toEvent(row), true, nil
}

// Count implements eventstore.EventStore.Count.
func (s *Store) Count(ctx context.Context, filter eventstore.Filter) (int64, error) {
	var count int64
	tx := applyFilter(s.db.WithContext(ctx), filter)
	if err := tx.Model(&eventRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

// EventsAfterPosition implements eventstore.EventStore.EventsAfterPosition.
func (s *Store) EventsAfterPosition(ctx context.Context, position int64, limit int, filter eventstore.Filter) ([]eventstore.Event, error) {
	filter.PositionAfter = position
	var rows []eventRow
	tx := applyFilter(s.db.WithContext(ctx), filter).Order("position ASC").Limit(limit)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("scanning events after position: %w", err)
	}
	return toEvents(rows), nil
}

// DistinctInstanceIDs implements eventstore.EventStore.DistinctInstanceIDs.
func (s *Store) DistinctInstanceIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&eventRow{}).Distinct().Pluck("instance_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("enumerating instance ids: %w", err)
	}
	return ids, nil
}

// Close implements eventstore.EventStore.Close.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func applyFilter(tx *gorm.DB, filter eventstore.Filter) *gorm.DB {
	if len(filter.InstanceIDs) > 0 {
		tx = tx.Where("instance_id IN ?", filter.InstanceIDs)
	}
	if len(filter.AggregateTypes) > 0 {
		tx = tx.Where("aggregate_type IN ?", filter.AggregateTypes)
	}
	if len(filter.AggregateIDs) > 0 {
		tx = tx.Where("aggregate_id IN ?", filter.AggregateIDs)
	}
	if len(filter.EventTypes) > 0 {
		tx = tx.Where("event_type IN ?", filter.EventTypes)
	}
	if filter.Editor != "" {
		tx = tx.Where("editor = ?", filter.Editor)
	}
	if !filter.CreatedAfter.IsZero() {
		tx = tx.Where("created_at > ?", filter.CreatedAfter)
	}
	if !filter.CreatedBefore.IsZero() {
		tx = tx.Where("created_at < ?", filter.CreatedBefore)
	}
	if filter.PositionAfter > 0 {
		tx = tx.Where("position > ?", filter.PositionAfter)
	}
	if filter.PositionBefore > 0 {
		tx = tx.Where("position < ?", filter.PositionBefore)
	}
	return tx
}

func toEvent(r eventRow) eventstore.Event {
	return eventstore.Event{
		Position:      r.Position,
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		Sequence:      r.Sequence,
		EventType:     r.EventType,
		Payload:       r.Payload,
		Editor:        r.Editor,
		ResourceOwner: r.ResourceOwner,
		InstanceID:    r.InstanceID,
		CreatedAt:     r.CreatedAt,
	}
}

func toEvents(rows []eventRow) []eventstore.Event {
	events := make([]eventstore.Event, len(rows))
	for i, r := range rows {
		events[i] = toEvent(r)
	}
	return events
}
