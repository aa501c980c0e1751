package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://example.com/api?PageNumber=1")
	b := CacheKey("https://example.com/api?PageNumber=1")
	c := CacheKey("https://example.com/api?PageNumber=2")

	if a != b {
		t.Errorf("Expected identical keys for identical URLs, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected different keys for different URLs")
	}
	if !strings.HasPrefix(a, "vacdash:v1:") {
		t.Errorf("Expected vacdash prefix, got %s", a)
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get(ctx, "missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get(ctx, "k")
	if !found {
		t.Fatal("Expected hit after Set")
	}
	if string(val) != "v" {
		t.Errorf("Expected v, got %s", val)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set(ctx, "short", []byte("v"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	if _, found := c.Get(ctx, "short"); found {
		t.Error("Expected entry to expire")
	}
}

func TestMemoryCache_DeleteClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	_ = c.Delete(ctx, "a")
	if _, found := c.Get(ctx, "a"); found {
		t.Error("Expected a to be deleted")
	}
	if _, found := c.Get(ctx, "b"); !found {
		t.Error("Expected b to survive delete of a")
	}

	_ = c.Clear(ctx)
	if _, found := c.Get(ctx, "b"); found {
		t.Error("Expected empty cache after Clear")
	}
	if err := c.Ping(ctx); err != nil {
		t.Errorf("Expected memory ping to succeed, got %v", err)
	}
}

// downCache simulates an unreachable shared backend
type downCache struct{ MemoryCache }

func (d *downCache) Ping(context.Context) error { return ErrUnavailable }

func TestLayeredCache_PromotesFromShared(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryCache(time.Minute, time.Minute)
	layered := NewLayeredCache(time.Minute, time.Minute, shared)

	_ = shared.Set(ctx, "k", []byte("from-shared"), 0)

	val, found := layered.Get(ctx, "k")
	if !found || string(val) != "from-shared" {
		t.Fatalf("Expected shared hit, got %q found=%v", val, found)
	}

	// Remove from shared; the promoted copy must still answer
	_ = shared.Delete(ctx, "k")
	if val, found := layered.Get(ctx, "k"); !found || string(val) != "from-shared" {
		t.Errorf("Expected memory hit after promotion, got %q found=%v", val, found)
	}
}

func TestLayeredCache_PromotedCopyExpiresWithShared(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryCache(time.Minute, time.Minute)
	layered := NewLayeredCache(time.Minute, time.Minute, shared)

	_ = shared.Set(ctx, "k", []byte("v"), 50*time.Millisecond)
	if _, found := layered.Get(ctx, "k"); !found {
		t.Fatal("Expected shared hit")
	}

	time.Sleep(100 * time.Millisecond)
	if _, found := layered.Get(ctx, "k"); found {
		t.Error("Expected promoted copy to expire with the shared entry")
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set(ctx, "k", []byte("v"), 30*time.Second)
	remaining, found := c.TTL(ctx, "k")
	if !found || remaining <= 0 || remaining > 30*time.Second {
		t.Errorf("Expected remaining in (0, 30s], got %v found=%v", remaining, found)
	}
	if _, found := c.TTL(ctx, "missing"); found {
		t.Error("Expected no TTL for unknown key")
	}
}

func TestLayeredCache_SetDeleteBothLayers(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryCache(time.Minute, time.Minute)
	layered := NewLayeredCache(time.Minute, time.Minute, shared)

	if err := layered.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := shared.Get(ctx, "k"); !found {
		t.Error("Expected Set to write through to shared layer")
	}

	_ = layered.Delete(ctx, "k")
	if _, found := layered.Get(ctx, "k"); found {
		t.Error("Expected Delete to remove from both layers")
	}
}

func TestLayeredCache_PingUsesShared(t *testing.T) {
	layered := NewLayeredCache(time.Minute, time.Minute, &downCache{MemoryCache: *NewMemoryCache(time.Minute, time.Minute)})

	err := layered.Ping(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestRedisCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	if err := c.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if _, found := c.Get(ctx, CacheKey("https://example.com")); found {
		t.Error("Expected miss from unreachable redis")
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err == nil {
		t.Error("Expected Set to fail against unreachable redis")
	}
	if _, found := c.TTL(ctx, "k"); found {
		t.Error("Expected no TTL from unreachable redis")
	}
}
