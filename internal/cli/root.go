package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vacdash/internal/model"
)

// version is set at build time with -ldflags "-X github.com/ppiankov/vacdash/internal/cli.version=..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vacdash",
	Short: "vacdash - vaccination program field data dashboard",
	Long: `vacdash pulls vaccination survey submissions from the field data API,
flattens and cleans them, and presents headline figures and charts:
latest submission, last vaccine, state coverage, number of children,
gender distribution, vaccination status by age group and a coverage map.

Run "vacdash serve" for the web dashboard or "vacdash render" for
one-shot JSON, Markdown, CSV and chart files.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of vacdash.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vacdash %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.vacdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (console logs at debug level)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	setDefaults(viper.GetViper(), model.DefaultConfig())

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.vacdash")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// VACDASH_CACHE_TTL overrides cache.ttl
	viper.SetEnvPrefix("VACDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env overrides and Unmarshal see them
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.project_id", cfg.API.ProjectID)
	v.SetDefault("api.table_id", cfg.API.TableID)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.page_number", cfg.API.PageNumber)
	v.SetDefault("api.key", cfg.API.Key)

	v.SetDefault("fetch.max_pages", cfg.Fetch.MaxPages)
	v.SetDefault("fetch.workers", cfg.Fetch.Workers)

	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	v.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)

	v.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	v.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", cfg.Cache.CleanupInterval)
	v.SetDefault("cache.redis_addr", cfg.Cache.RedisAddr)
	v.SetDefault("cache.redis_db", cfg.Cache.RedisDB)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.refresh_interval", cfg.Server.RefreshInterval)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.request_timeout", cfg.Server.RequestTimeout)

	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.level", cfg.Log.Level)
}

// loadConfig returns the effective configuration (flags > env > file > defaults)
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.API.PageSize <= 0 {
		return nil, fmt.Errorf("api.page_size must be positive, got %d", cfg.API.PageSize)
	}
	if cfg.Fetch.Workers <= 0 {
		cfg.Fetch.Workers = 1
	}
	return cfg, nil
}

// newLogger builds the service logger from the log section
func newLogger(cfg model.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if verbose || cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	return logger.Level(level).With().Timestamp().Str("service", "vacdash").Logger()
}
