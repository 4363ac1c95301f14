// Command authcored runs the authorization server process: event
// store, projection engine, query layer, cache/policy resolver, and
// the OAuth/OIDC/JAR HTTP surface, composed with go.uber.org/fx the
// way a cmd/ entrypoint composes a top-level fx module.
package main

import (
	"go.uber.org/fx"

	"github.com/coreidentity/authcore/pkg/authn"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/infrastructure"
	"github.com/coreidentity/authcore/pkg/projection"
)

func main() {
	fx.New(
		domain.DomainModule,
		infrastructure.InfrastructureModule,
		projection.HandlersModule,
		projection.ProjectionModule,
		authn.AuthModule,
	).Run()
}
