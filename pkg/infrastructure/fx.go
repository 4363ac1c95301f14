package infrastructure

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/cache"
	"github.com/coreidentity/authcore/pkg/config"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/eventstore"
	"github.com/coreidentity/authcore/pkg/projection"
)

// InfrastructureModule provides the ambient stack: config, database
// connection, logger, event store, event bus, and cache, following
// pkg/infrastructure/fx.go's provider-per-concern layout.
var InfrastructureModule = fx.Options(
	fx.Provide(
		config.Load,
		databaseProvider,
		eventStoreProvider,
		loggerProvider,
		NewEventBus,
		publisherProvider,
		NewCache,
		analyticsExporterProvider,
	),
	fx.Invoke(
		registerDatabaseLifecycle,
		registerEventBusLifecycle,
		registerCacheLifecycle,
	),
)

func databaseProvider(cfg *config.Config) (*gorm.DB, error) {
	return NewDatabase(cfg.Database)
}

func eventStoreProvider(cfg *config.Config, db *gorm.DB) (eventstore.EventStore, error) {
	return NewEventStore(context.Background(), cfg.Database, db)
}

func loggerProvider(cfg *config.Config) (domain.Logger, error) {
	return NewLogger(cfg.Logging)
}

func publisherProvider(bus *gochannel.GoChannel) message.Publisher {
	return bus
}

func analyticsExporterProvider(cfg *config.Config, log domain.Logger) (projection.Exporter, error) {
	return NewAnalyticsExporter(context.Background(), cfg.Analytics, log)
}

func registerDatabaseLifecycle(lc fx.Lifecycle, db *gorm.DB, log domain.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting database connection")
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing database connection")
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}

func registerEventBusLifecycle(lc fx.Lifecycle, bus *gochannel.GoChannel, log domain.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing event bus")
			return bus.Close()
		},
	})
}

func registerCacheLifecycle(lc fx.Lifecycle, c *cache.Cache, log domain.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing cache")
			return c.Close()
		},
	})
}
