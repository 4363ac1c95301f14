package authn

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coreidentity/authcore/pkg/cache"
)

// CacheRevocationStore is the dev/single-instance RevocationStore,
// backed by the process-local TTL cache. Revocations don't survive a
// restart and aren't shared across instances — fine for local
// development and tests, not for a multi-instance deployment.
type CacheRevocationStore struct {
	c *cache.Cache
}

// NewCacheRevocationStore wraps an existing cache.Cache.
func NewCacheRevocationStore(c *cache.Cache) *CacheRevocationStore {
	return &CacheRevocationStore{c: c}
}

// Revoke implements RevocationStore.
func (s *CacheRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.c.Set(revocationKey(jti), true, ttl, false)
	return nil
}

// IsRevoked implements RevocationStore.
func (s *CacheRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.c.Exists(revocationKey(jti)), nil
}

// RedisRevocationStore is the production RevocationStore: revoked
// jtis are shared across every instance validating tokens, which an
// in-process cache can't provide.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore wraps an existing redis client.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Revoke implements RevocationStore.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, revocationKey(jti), "1", ttl).Err()
}

// IsRevoked implements RevocationStore.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func revocationKey(jti string) string {
	return "revoked-token:" + jti
}
