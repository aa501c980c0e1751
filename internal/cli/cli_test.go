package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/vacdash/internal/cache"
	"github.com/ppiankov/vacdash/internal/model"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("VACDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, model.DefaultConfig())
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newViper())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	want := model.DefaultConfig()
	if cfg.API != want.API {
		t.Errorf("API = %+v, want %+v", cfg.API, want.API)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Server.Addr = %q, want :3000", cfg.Server.Addr)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("VACDASH_API_PAGE_SIZE", "50")
	t.Setenv("VACDASH_CACHE_TTL", "90s")
	t.Setenv("VACDASH_CACHE_REDIS_ADDR", "redis:6379")
	t.Setenv("VACDASH_FETCH_MAX_PAGES", "3")

	cfg, err := loadConfig(newViper())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.API.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.API.PageSize)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("TTL = %v, want 90s", cfg.Cache.TTL)
	}
	if cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.Fetch.MaxPages != 3 {
		t.Errorf("MaxPages = %d, want 3", cfg.Fetch.MaxPages)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  project_id: 99\nserver:\n  addr: \":8080\"\nlog:\n  format: console\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.API.ProjectID != 99 {
		t.Errorf("ProjectID = %d, want 99", cfg.API.ProjectID)
	}
	if cfg.API.TableID != 843174 {
		t.Errorf("TableID = %d, want default 843174", cfg.API.TableID)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadConfig_RejectsBadPageSize(t *testing.T) {
	v := newViper()
	v.Set("api.page_size", 0)
	if _, err := loadConfig(v); err == nil {
		t.Error("expected error for zero page size")
	}
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".vacdash", "config.yaml")
	if err := initConfigFile(path); err != nil {
		t.Fatalf("initConfigFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.API.PageSize != 700 {
		t.Errorf("PageSize = %d, want 700", cfg.API.PageSize)
	}

	if err := initConfigFile(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeYAML(&buf, model.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, key := range []string{"base_url:", "max_pages:", "redis_addr:", "refresh_interval:"} {
		if !strings.Contains(out, key) {
			t.Errorf("YAML missing %s", key)
		}
	}
}

func TestNewCache(t *testing.T) {
	cfg := model.DefaultConfig().Cache

	c, cleanup := newCache(cfg, zerolog.Nop())
	defer cleanup()
	if _, ok := c.(*cache.MemoryCache); !ok {
		t.Errorf("cache = %T, want *cache.MemoryCache", c)
	}

	cfg.Enabled = false
	c, cleanup = newCache(cfg, zerolog.Nop())
	defer cleanup()
	if c != nil {
		t.Errorf("disabled cache = %T, want nil", c)
	}
}

func TestClearCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	key := cache.CacheKey("https://example.com/api")
	_ = c.Set(ctx, key, []byte("payload"), 0)

	if err := clearCache(ctx, c); err != nil {
		t.Fatalf("clearCache: %v", err)
	}
	if _, found := c.Get(ctx, key); found {
		t.Error("Expected entry to be cleared")
	}

	if err := clearCache(ctx, nil); !errors.Is(err, errCacheDisabled) {
		t.Errorf("Expected errCacheDisabled, got %v", err)
	}
}

func TestNewLogger_Level(t *testing.T) {
	logger := newLogger(model.LogConfig{Format: "json", Level: "warn"})
	if got := logger.GetLevel().String(); got != "warn" {
		t.Errorf("level = %s, want warn", got)
	}

	logger = newLogger(model.LogConfig{Level: "nonsense"})
	if got := logger.GetLevel().String(); got != "info" {
		t.Errorf("level = %s, want info", got)
	}
}
