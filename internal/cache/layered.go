package cache

import (
	"context"
	"time"
)

// LayeredCache keeps a process-local copy in front of a shared backend
type LayeredCache struct {
	memory    Cache
	memoryTTL time.Duration
	shared    Cache
}

// NewLayeredCache creates a layered cache over the given shared backend
func NewLayeredCache(memoryTTL time.Duration, cleanupInterval time.Duration, shared Cache) *LayeredCache {
	return &LayeredCache{
		memory:    NewMemoryCache(memoryTTL, cleanupInterval),
		memoryTTL: memoryTTL,
		shared:    shared,
	}
}

// Get checks memory first, then the shared backend
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.memory.Get(ctx, key); found {
		return val, true
	}

	if val, found := c.shared.Get(ctx, key); found {
		ttl, ok := c.promotionTTL(ctx, key)
		if ok {
			_ = c.memory.Set(ctx, key, val, ttl)
		}
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.shared.Set(ctx, key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.memory.Delete(ctx, key)
	return c.shared.Delete(ctx, key)
}

// Clear empties both layers
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.memory.Clear(ctx)
	return c.shared.Clear(ctx)
}

// Ping reports the health of the shared backend
func (c *LayeredCache) Ping(ctx context.Context) error {
	return c.shared.Ping(ctx)
}

// promotionTTL keeps a promoted copy from outliving the shared entry
func (c *LayeredCache) promotionTTL(ctx context.Context, key string) (time.Duration, bool) {
	exp, ok := c.shared.(Expirer)
	if !ok {
		return 0, true
	}
	remaining, live := exp.TTL(ctx, key)
	if !live {
		return 0, false
	}
	if remaining == 0 || (c.memoryTTL > 0 && remaining > c.memoryTTL) {
		return 0, true
	}
	return remaining, true
}
