package infrastructure

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/config"
	"github.com/coreidentity/authcore/pkg/eventstore"
	"github.com/coreidentity/authcore/pkg/eventstore/gormstore"
	"github.com/coreidentity/authcore/pkg/eventstore/pgstore"
)

// NewEventStore selects the Postgres-backed store in production and
// the GORM/sqlite store for local development and tests, per the
// driver named in config.DatabaseConfig.
func NewEventStore(ctx context.Context, cfg config.DatabaseConfig, db *gorm.DB) (eventstore.EventStore, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting event store pool: %w", err)
		}
		store := pgstore.New(pool)
		if err := pgstore.Migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("migrating event store: %w", err)
		}
		return store, nil
	case "sqlite":
		return gormstore.New(db)
	default:
		return nil, fmt.Errorf("unsupported event store driver: %s", cfg.Driver)
	}
}
