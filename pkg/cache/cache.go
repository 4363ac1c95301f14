// Package cache implements C5's in-process cache: get/set/delete/
// exists/mget/mset/mdel/keys(pattern)/expire/ttl/stats/clear/health/
// close, with lazy-plus-periodic-sweep TTL expiry. Grounded on r3e's
// infrastructure/cache/cache.go (sync.RWMutex map + time.Ticker
// sweep), extended with the glob-pattern key matching and hit/miss
// stats this package needs — no ecosystem cache library models
// that exact contract (see DESIGN.md), so this stays hand-rolled the
// same way the reference eventsourcing internals do.
package cache

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// entry is one cached value plus its absolute expiry. A zero
// Expiration means "no expiry".
type entry struct {
	value      interface{}
	expiration time.Time
	hasExpiry  bool
}

func (e entry) expired(now time.Time) bool {
	return e.hasExpiry && now.After(e.expiration)
}

// Stats are the counters `stats()` reports.
type Stats struct {
	Hits     int64
	Misses   int64
	LiveKeys int64
}

// HitRate is hits/(hits+misses), zero when no requests have been made.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is an in-process, TTL-expiring key-value store safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	hits       int64
	misses     int64
	stopSweep  chan struct{}
	closeOnce  sync.Once
}

// New builds a Cache with defaultTTL applied when Set is called with
// ttl==0 and useDefault set, and starts its periodic sweep goroutine at
// sweepInterval (no sweep goroutine when sweepInterval <= 0).
func New(defaultTTL, sweepInterval time.Duration) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		stopSweep:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

// Get implements `get`. Lazily deletes and misses on an expired entry.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set implements `set(k,v,ttl?)`. ttl==0 means "no expiry" when
// useDefault is false; when useDefault is true, ttl==0 means "use the
// cache's configured default" (distinguishing an absent
// TTL argument from an explicit zero).
func (c *Cache) Set(key string, value interface{}, ttl time.Duration, useDefault bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl, useDefault)
}

func (c *Cache) setLocked(key string, value interface{}, ttl time.Duration, useDefault bool) {
	if useDefault && ttl == 0 {
		ttl = c.defaultTTL
	}
	e := entry{value: value}
	if ttl > 0 {
		e.hasExpiry = true
		e.expiration = time.Now().Add(ttl)
	}
	c.entries[key] = e
}

// Delete implements `delete`.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Exists implements `exists`, honoring lazy expiry without recording
// hit/miss stats (an existence check, not a read).
func (c *Cache) Exists(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && !e.expired(time.Now())
}

// MGet implements `mget`: returns values for every key present and
// unexpired, omitting the rest.
func (c *Cache) MGet(keys []string) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]interface{}, len(keys))
	now := time.Now()
	for _, k := range keys {
		e, ok := c.entries[k]
		if !ok || e.expired(now) {
			c.misses++
			continue
		}
		c.hits++
		result[k] = e.value
	}
	return result
}

// MSet implements `mset`, applying the same ttl/useDefault semantics
// as Set to every pair.
func (c *Cache) MSet(values map[string]interface{}, ttl time.Duration, useDefault bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.setLocked(k, v, ttl, useDefault)
	}
}

// MDel implements `mdel`.
func (c *Cache) MDel(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Keys implements `keys(pattern)`: a glob with `*` wildcard, compiled
// to a regex and filtered against the live (unexpired) key set.
func (c *Cache) Keys(pattern string) []string {
	re := globToRegexp(pattern)

	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	var matched []string
	for k, e := range c.entries {
		if e.expired(now) {
			continue
		}
		if re.MatchString(k) {
			matched = append(matched, k)
		}
	}
	return matched
}

func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, part := range strings.Split(pattern, "*") {
		b.WriteString(regexp.QuoteMeta(part))
		b.WriteString(".*")
	}
	expr := strings.TrimSuffix(b.String(), ".*") + "$"
	if !strings.Contains(pattern, "*") {
		expr = "^" + regexp.QuoteMeta(pattern) + "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return regexp.MustCompile("^$")
	}
	return re
}

// Expire implements `expire`: sets a new TTL on an existing key.
// Returns false if the key is absent or already expired.
func (c *Cache) Expire(key string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		return false
	}
	if ttl > 0 {
		e.hasExpiry = true
		e.expiration = time.Now().Add(ttl)
	} else {
		e.hasExpiry = false
	}
	c.entries[key] = e
	return true
}

// TTL implements `ttl(key)`: -2 if absent, -1 if present with no
// expiry, otherwise seconds remaining (ceiling; never negative).
func (c *Cache) TTL(key string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	now := time.Now()
	if !ok || e.expired(now) {
		return -2
	}
	if !e.hasExpiry {
		return -1
	}
	remaining := e.expiration.Sub(now)
	if remaining <= 0 {
		return 0
	}
	seconds := remaining / time.Second
	if remaining%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}

// Stats implements `stats()`.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, LiveKeys: int64(len(c.entries))}
}

// Clear implements `clear`: drops every entry, preserving stats
// counters (they describe request history, not current contents).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Health implements `health`: reports true until Close has been
// called, false afterwards.
func (c *Cache) Health() bool {
	select {
	case <-c.stopSweep:
		return false
	default:
		return true
	}
}

// Close implements `close`: stops the sweep loop. Idempotent.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopSweep)
	})
	return nil
}
