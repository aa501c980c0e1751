package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vacdash/internal/pipeline"
	"github.com/ppiankov/vacdash/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard",
	Long: `Serve runs the vaccination dashboard web application:
- GET  /                    dashboard page
- GET  /charts/<name>.svg   gender, vaccination and map charts (.png also works)
- GET  /api/v1/dashboard    dashboard figures as JSON (ETag aware)
- GET  /api/v1/records.csv  flattened field data as CSV
- POST /api/v1/refresh      drop the cached data and fetch again
- GET  /health              cache backend health

Field data is fetched on first use and cached for cache.ttl.

Example:
  vacdash serve
  vacdash serve --addr :8080
  VACDASH_CACHE_REDIS_ADDR=redis:6379 vacdash serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	c, closeCache := newCache(cfg.Cache, logger)
	defer closeCache()

	p := pipeline.NewPipeline(cfg, c, logger)
	srv, err := server.New(p, cfg.Server, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if _, err := p.Dashboard(ctx); err != nil {
			logger.Warn().Err(err).Msg("cache warm-up failed")
		} else {
			logger.Info().Msg("cache warm-up completed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
