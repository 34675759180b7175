// internal/directory/cache.go
//
// Optional Redis cache for host→tenant lookups.
//
// Context
// -------
// Every request resolves its host before anything else, so the hot path
// hits `domains`/`tenants` constantly.  When a Redis address is
// configured the resolver consults this cache first; entries carry a
// short TTL and are invalidated when tenant creation touches the
// mapping.  A nil *HostCache disables caching entirely, which keeps
// tests and single-node dev setups free of a Redis dependency.
package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const hostKeyPrefix = "stolyo:host:"

// HostCache caches resolved tenants by hostname.
type HostCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewHostCache connects a cache to addr.  TTL bounds staleness after
// administrative domain changes.
func NewHostCache(addr string, ttl time.Duration) *HostCache {
	return &HostCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Get returns the cached tenant for hostname, if any.  Errors degrade to a
// miss; the caller falls through to the directory.
func (c *HostCache) Get(ctx context.Context, hostname string) (*Tenant, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, hostKeyPrefix+hostname).Result()
	if err != nil {
		return nil, false
	}
	var t Tenant
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, false
	}
	return &t, true
}

// Put stores a resolved tenant under hostname.
func (c *HostCache) Put(ctx context.Context, hostname string, t *Tenant) {
	if c == nil || t == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	c.rdb.SetEx(ctx, hostKeyPrefix+hostname, data, c.ttl)
}

// Invalidate drops cached entries for the given hostnames.  Called after
// tenant creation so a freshly mapped domain resolves immediately.
func (c *HostCache) Invalidate(ctx context.Context, hostnames ...string) {
	if c == nil || len(hostnames) == 0 {
		return
	}
	keys := make([]string, len(hostnames))
	for i, h := range hostnames {
		keys[i] = hostKeyPrefix + h
	}
	c.rdb.Del(ctx, keys...)
}

// Close releases the Redis connection.
func (c *HostCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
