package projection

import "go.uber.org/fx"

// HandlersModule registers every built-in projection Handler into the
// "projection_handlers" value group engineProvider consumes. Kept
// separate from ProjectionModule so a deployment can swap in a
// different handler set without touching the engine's own wiring.
var HandlersModule = fx.Options(
	fx.Provide(
		fx.Annotate(NewOrgProjector, fx.As(new(Handler)), fx.ResultTags(`group:"projection_handlers"`)),
		fx.Annotate(NewUserProjector, fx.As(new(Handler)), fx.ResultTags(`group:"projection_handlers"`)),
	),
)
