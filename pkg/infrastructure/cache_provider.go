package infrastructure

import (
	"github.com/coreidentity/authcore/pkg/cache"
	"github.com/coreidentity/authcore/pkg/config"
)

// NewCache builds the process-wide in-memory cache (C5) per
// config.CacheConfig.
func NewCache(cfg config.CacheConfig) *cache.Cache {
	return cache.New(cfg.DefaultTTL, cfg.SweepInterval)
}
