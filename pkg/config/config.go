// Package config loads process configuration the way
// pkg/infrastructure/config.go does: defaults set in code, an optional
// YAML file, and AUTHCORE_-prefixed environment variable overrides via
// github.com/spf13/viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full process configuration, composed of the knobs each
// component needs at startup.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Events     EventsConfig     `mapstructure:"events"`
	Projection ProjectionConfig `mapstructure:"projection"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
}

// ServerConfig holds the HTTP surface's listen address.
type ServerConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
}

// DatabaseConfig holds the read-model/event-store connection.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// EventsConfig holds event-bus configuration.
type EventsConfig struct {
	Publisher string `mapstructure:"publisher"` // channel, pubsub
}

// ProjectionConfig holds the projection engine's per-process tuning.
type ProjectionConfig struct {
	BatchSize        int           `mapstructure:"batch_size"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
}

// CacheConfig holds the in-process cache's tuning.
type CacheConfig struct {
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// PolicyConfig holds the policy resolver's memoization TTL.
type PolicyConfig struct {
	ResolverTTL time.Duration `mapstructure:"resolver_ttl"`
}

// AuthConfig holds the OIDC/OAuth2/JAR surface's knobs.
type AuthConfig struct {
	Issuer               string        `mapstructure:"issuer"`
	JARMaxAge            time.Duration `mapstructure:"jar_max_age"`
	SessionCookieName    string        `mapstructure:"session_cookie_name"`
	SessionCookieSecret  string        `mapstructure:"session_cookie_secret"`
	AccessTokenTTL       time.Duration `mapstructure:"access_token_ttl"`
	IDTokenTTL           time.Duration `mapstructure:"id_token_ttl"`
	RefreshTokenTTL      time.Duration `mapstructure:"refresh_token_ttl"`
	RefreshTokenIdleTTL  time.Duration `mapstructure:"refresh_token_idle_ttl"`
	AuthorizationCodeTTL time.Duration `mapstructure:"authorization_code_ttl"`

	// RevocationBackend selects the token-jti revocation store: "memory"
	// (single-process, dev) or "redis" (shared across replicas).
	RevocationBackend string `mapstructure:"revocation_backend"`
	RevocationRedisAddr string `mapstructure:"revocation_redis_addr"`

	// ExternalIDPs lists the external OIDC providers a LoginPolicy's
	// LinkedIDPs can reference by name.
	ExternalIDPs []ExternalIDPConfig `mapstructure:"external_idps"`
}

// ExternalIDPConfig configures one federated OIDC login provider.
type ExternalIDPConfig struct {
	Name         string   `mapstructure:"name"`
	Issuer       string   `mapstructure:"issuer"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`   // debug, info, warn, error, fatal
	Format  string `mapstructure:"format"`  // json, text
	Backend string `mapstructure:"backend"` // text, zap
}

// AnalyticsConfig holds the best-effort BigQuery/Bigtable export sink's
// configuration. Left empty (Enabled=false) disables the sink entirely.
type AnalyticsConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	GCPProjectID     string `mapstructure:"gcp_project_id"`
	BigQueryDataset  string `mapstructure:"bigquery_dataset"`
	BigQueryTable    string `mapstructure:"bigquery_table"`
	BigtableInstance string `mapstructure:"bigtable_instance"`
	BigtableTable    string `mapstructure:"bigtable_table"`
	BigtableFamily   string `mapstructure:"bigtable_family"`
	DynamoTable      string `mapstructure:"dynamo_table"`
}

// Load reads configuration from ./config.yaml (or ./configs, ./config)
// overlaid with AUTHCORE_-prefixed environment variables, falling back
// to defaults when no file is present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvPrefix("AUTHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_address", ":8080")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:authcore.db?cache=shared&mode=rwc")

	v.SetDefault("events.publisher", "channel")

	v.SetDefault("projection.batch_size", 200)
	v.SetDefault("projection.poll_interval", 500*time.Millisecond)
	v.SetDefault("projection.failure_threshold", 5)

	v.SetDefault("cache.default_ttl", 5*time.Minute)
	v.SetDefault("cache.sweep_interval", time.Minute)

	v.SetDefault("policy.resolver_ttl", 30*time.Second)

	v.SetDefault("auth.issuer", "http://localhost:8080")
	v.SetDefault("auth.jar_max_age", 10*time.Minute)
	v.SetDefault("auth.session_cookie_name", "authcore_session")
	v.SetDefault("auth.access_token_ttl", time.Hour)
	v.SetDefault("auth.id_token_ttl", time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 30*24*time.Hour)
	v.SetDefault("auth.refresh_token_idle_ttl", 7*24*time.Hour)
	v.SetDefault("auth.authorization_code_ttl", time.Minute)
	v.SetDefault("auth.revocation_backend", "memory")
	v.SetDefault("auth.revocation_redis_addr", "localhost:6379")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.backend", "text")

	v.SetDefault("analytics.enabled", false)
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres)", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}

	switch cfg.Events.Publisher {
	case "channel", "pubsub":
	default:
		return fmt.Errorf("unsupported events publisher: %s (supported: channel, pubsub)", cfg.Events.Publisher)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("unsupported logging level: %s", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported logging format: %s", cfg.Logging.Format)
	}
	switch cfg.Logging.Backend {
	case "text", "zap":
	default:
		return fmt.Errorf("unsupported logging backend: %s (supported: text, zap)", cfg.Logging.Backend)
	}

	if cfg.Auth.Issuer == "" {
		return fmt.Errorf("auth issuer cannot be empty")
	}
	switch cfg.Auth.RevocationBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported auth revocation backend: %s (supported: memory, redis)", cfg.Auth.RevocationBackend)
	}
	return nil
}

// PostgresDSN builds a libpq-style Postgres DSN, mirroring the
// GetPostgresDSN helper pattern.
func PostgresDSN(host, user, password, dbname string, port int, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		host, user, password, dbname, port, sslmode)
}
