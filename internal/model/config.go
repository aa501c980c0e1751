package model

import "time"

// Config holds all vacdash settings.
// Field tags serve both viper (mapstructure) and `config show` (yaml).
type Config struct {
	API          APIConfig          `mapstructure:"api" yaml:"api"`
	Fetch        FetchConfig        `mapstructure:"fetch" yaml:"fetch"`
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

// APIConfig describes the field data endpoint
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	ProjectID  int    `mapstructure:"project_id" yaml:"project_id"`
	TableID    int    `mapstructure:"table_id" yaml:"table_id"`
	PageSize   int    `mapstructure:"page_size" yaml:"page_size"`
	PageNumber int    `mapstructure:"page_number" yaml:"page_number"`
	Key        string `mapstructure:"key" yaml:"key"`
}

// FetchConfig controls how many pages are pulled per refresh
type FetchConfig struct {
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"` // 1 keeps the single-page behaviour
	Workers  int `mapstructure:"workers" yaml:"workers"`
}

// HTTPConfig configures the outbound client
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	HTTPProxy    string        `mapstructure:"http_proxy" yaml:"http_proxy"`
	HTTPSProxy   string        `mapstructure:"https_proxy" yaml:"https_proxy"`
}

// RateLimitingConfig throttles calls to the upstream API
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// CacheConfig configures the fetch cache
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr" yaml:"redis_addr"` // empty = memory only
	RedisDB         int           `mapstructure:"redis_db" yaml:"redis_db"`
}

// ServerConfig configures `vacdash serve`
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"` // per client; 0 = unlimited
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // 0 = no deadline
}

// LogConfig configures the service logger
type LogConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // json or console
	Level  string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the settings of the production deployment
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "https://app-api.enumeration.africa/api/FieldData/GetFieldData",
			ProjectID:  312,
			TableID:    843174,
			PageSize:   700,
			PageNumber: 1,
			Key:        "X3QtKDK35rEYjuW3BM0iBUNiYCffLKo4WQ8=",
		},
		Fetch: FetchConfig{
			MaxPages: 1,
			Workers:  4,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "vacdash/0.1",
			MaxBodyBytes: 50_000_000,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             10 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":3000",
			RefreshInterval: 30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  90 * time.Second,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}
