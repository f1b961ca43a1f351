package gate

import (
	"context"
	"sync"
	"time"
)

// TTLCache memoizes lookups per key for a fixed duration.
// Profiles and validator assignments both go through it, so a burst of
// transitions does not hit the database for every check.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]ttlEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLCache creates an empty cache. A ttl <= 0 disables caching.
func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		entries: make(map[K]ttlEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrLoad returns the cached value for key or calls load and stores its result.
// Errors are never cached.
func (c *TTLCache[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	v, err := load(ctx, key)
	if err != nil {
		return v, err
	}
	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[key] = ttlEntry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
	}
	return v, nil
}

// Invalidate removes one key.
func (c *TTLCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll clears the cache.
func (c *TTLCache[K, V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[K]ttlEntry[V])
	c.mu.Unlock()
}

// CachedResolver wraps a ProfileResolver with a TTLCache.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	cache *TTLCache[U, Profile]
}

// NewCachedResolver wraps a resolver with caching.
func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner: inner,
		cache: NewTTLCache[U, Profile](ttl),
	}
}

// Resolve returns the profile for the given user, using the cache if possible.
func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	return r.cache.GetOrLoad(ctx, user, r.inner.Resolve)
}

// Invalidate drops one user, e.g. after a profile reassignment.
func (r *CachedResolver[U]) Invalidate(user U) { r.cache.Invalidate(user) }

// InvalidateAll clears every cached profile, e.g. after permissions change.
func (r *CachedResolver[U]) InvalidateAll() { r.cache.InvalidateAll() }
