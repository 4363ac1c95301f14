package domain

import "go.uber.org/fx"

// DomainModule provides domain-layer dependencies. Like
// pkg/domain/fx.go elsewhere in this lineage, it stays empty: aggregates, events, and value
// objects are pure and constructed directly by the layers above,
// never resolved through the container.
var DomainModule = fx.Options()
