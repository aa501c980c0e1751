package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrUnavailable is returned by backends that cannot reach their store
var ErrUnavailable = errors.New("cache backend unavailable")

// Cache defines the interface for caching fetched field data
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Expirer is implemented by backends that can report how long an entry has left
type Expirer interface {
	TTL(ctx context.Context, key string) (time.Duration, bool)
}

// CacheKey generates a cache key from a request URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "vacdash:v1:" + hex.EncodeToString(hash[:])
}
