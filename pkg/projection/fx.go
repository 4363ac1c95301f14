package projection

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/config"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/eventstore"
)

// ProjectionModule provides the engine and registers its run loop as
// an fx.Lifecycle hook, the same pattern registerEventDispatcherLifecycle
// uses for its own background loop.
var ProjectionModule = fx.Options(
	fx.Provide(engineProvider),
	fx.Invoke(registerEngineLifecycle),
)

// engineParams groups every registered Handler via fx's "projection_handlers"
// value group, so adding a new projection only requires a new
// `fx.Annotate(NewFooProjector, fx.As(new(Handler)), fx.ResultTags(`group:"projection_handlers"`))`
// provider rather than editing this constructor.
type engineParams struct {
	fx.In

	Store     eventstore.EventStore
	DB        *gorm.DB
	Publisher message.Publisher
	Exporter  Exporter `optional:"true"`
	Log       domain.Logger
	Config    *config.Config
	Handlers  []Handler `group:"projection_handlers"`
}

func engineProvider(p engineParams) *Engine {
	return New(p.Store, p.DB, p.Publisher, p.Log, p.Handlers,
		WithBatchSize(p.Config.Projection.BatchSize),
		WithPollInterval(p.Config.Projection.PollInterval),
		WithMetricsRegisterer(prometheus.DefaultRegisterer),
		WithExporter(p.Exporter),
	)
}

func registerEngineLifecycle(lc fx.Lifecycle, engine *Engine, log domain.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := engine.Run(ctx); err != nil && err != context.Canceled {
					log.Error("projection engine stopped with error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
