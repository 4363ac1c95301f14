package authn

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/cache"
	"github.com/coreidentity/authcore/pkg/config"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/query"
)

// AuthModule provides the C6 surface: the token issuer, the grant
// checker, and the chi-routed HTTP server, started as an fx.Lifecycle
// hook the same way the projection engine's loop is registered.
var AuthModule = fx.Options(
	fx.Provide(
		issuerProvider,
		grantCheckerProvider,
		revocationStoreProvider,
		serverProvider,
	),
	fx.Invoke(registerHTTPLifecycle),
)

// revocationStoreProvider selects the Redis-backed RevocationStore in
// production and the in-process cache-backed one for local
// development, the same driver-switch shape as
// pkg/infrastructure/eventstore_provider.go's store selection.
func revocationStoreProvider(cfg *config.Config, c *cache.Cache) (RevocationStore, error) {
	switch cfg.Auth.RevocationBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Auth.RevocationRedisAddr})
		return NewRedisRevocationStore(client), nil
	case "memory", "":
		return NewCacheRevocationStore(c), nil
	default:
		return nil, fmt.Errorf("unsupported auth revocation backend: %s", cfg.Auth.RevocationBackend)
	}
}

func issuerProvider(cfg *config.Config) (*Issuer, error) {
	secret := cfg.Auth.SessionCookieSecret
	if secret == "" {
		secret = "dev-only-insecure-signing-key-change-me!!"
	}
	return NewIssuer(
		[]byte(secret),
		cfg.Auth.Issuer,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.IDTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		cfg.Auth.RefreshTokenIdleTTL,
		cfg.Auth.AuthorizationCodeTTL,
	)
}

func grantCheckerProvider(db *gorm.DB) *GrantChecker {
	return NewGrantChecker(query.NewGrantRepository(db))
}

func serverProvider(log domain.Logger, issuer *Issuer, cfg *config.Config, grants *GrantChecker, db *gorm.DB, revocation RevocationStore) *Server {
	jarCfg := JARValidatorConfig{
		ExpectedAudience: cfg.Auth.Issuer,
		MaxAge:           cfg.Auth.JARMaxAge,
	}
	secret := cfg.Auth.SessionCookieSecret
	if secret == "" {
		secret = "dev-only-insecure-signing-key-change-me!!"
	}
	login := NewLoginHandler(db, []byte(secret), cfg.Auth.SessionCookieName, log)

	var federation *FederationHandler
	if len(cfg.Auth.ExternalIDPs) > 0 {
		idps := make([]IDPConfig, 0, len(cfg.Auth.ExternalIDPs))
		for _, idp := range cfg.Auth.ExternalIDPs {
			idps = append(idps, IDPConfig{
				Name:         idp.Name,
				Issuer:       idp.Issuer,
				ClientID:     idp.ClientID,
				ClientSecret: idp.ClientSecret,
				RedirectURL:  idp.RedirectURL,
				Scopes:       idp.Scopes,
			})
		}
		federation = NewFederationHandler(idps, log)
	}

	return NewServer(log, issuer, jarCfg, grants, login, revocation, federation)
}

func registerHTTPLifecycle(lc fx.Lifecycle, srv *Server, cfg *config.Config, log domain.Logger) {
	httpSrv := &http.Server{Addr: cfg.Server.ListenAddress, Handler: srv.Router}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting authn http server", "address", cfg.Server.ListenAddress)
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("authn http server stopped with error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping authn http server")
			return httpSrv.Shutdown(ctx)
		},
	})
}
