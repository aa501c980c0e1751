package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vacdash/internal/cache"
	"github.com/ppiankov/vacdash/internal/model"
)

var errCacheDisabled = errors.New("cache is disabled (cache.enabled=false)")

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the field data cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached data set",
	Long: `Clear removes all vacdash entries from the configured cache backend.
With cache.redis_addr set this drops the data shared by every dashboard replica,
so the next request on any replica fetches fresh field data.

Example:
  VACDASH_CACHE_REDIS_ADDR=redis:6379 vacdash cache clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Log)

		c, closeCache := newCache(cfg.Cache, logger)
		defer closeCache()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := clearCache(ctx, c); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "✓ Cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// clearCache empties c after checking the backend is reachable
func clearCache(ctx context.Context, c cache.Cache) error {
	if c == nil {
		return errCacheDisabled
	}
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	if err := c.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// newCache builds the fetch cache from the cache section. The returned
// cleanup func releases backend connections; the cache is nil when disabled.
func newCache(cfg model.CacheConfig, logger zerolog.Logger) (cache.Cache, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("fetch cache disabled")
		return nil, func() {}
	}

	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.TTL, cfg.CleanupInterval), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connection failed, continuing with misses until it is reachable")
	} else {
		logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	}

	shared := cache.NewRedisCache(rdb, cfg.TTL)
	return cache.NewLayeredCache(cfg.TTL, cfg.CleanupInterval, shared), func() { _ = rdb.Close() }
}
