package server

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/ppiankov/vacdash/internal/model"
	"github.com/ppiankov/vacdash/internal/worker"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardSource produces dashboard snapshots. *pipeline.Pipeline satisfies it.
type DashboardSource interface {
	Dashboard(ctx context.Context) (*model.Snapshot, error)
	Refresh(ctx context.Context) (*model.Snapshot, error)
	CacheHealth(ctx context.Context) error
}

// Server serves the dashboard page, its charts and the JSON API
type Server struct {
	app     *fiber.App
	source  DashboardSource
	refresh *worker.Limiter
	page    *template.Template
	logger  zerolog.Logger

	requestTimeout time.Duration
}

// New creates a server with all routes registered
func New(source DashboardSource, cfg model.ServerConfig, logger zerolog.Logger) (*Server, error) {
	page, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05 MST") },
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	var perSecond float64
	if cfg.RefreshInterval > 0 {
		perSecond = 1 / cfg.RefreshInterval.Seconds()
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		source:  source,
		refresh: worker.NewLimiter(perSecond, 1),
		page:    page,
		logger:  logger.With().Str("component", "server").Logger(),

		requestTimeout: cfg.RequestTimeout,
	}

	s.app.Use(recover.New())
	s.app.Use(fiberlogger.New(fiberlogger.Config{
		Output: s.logger,
		Format: "${status} ${method} ${path} ${latency}\n",
	}))
	s.app.Use(s.requestContext)
	s.routes()

	return s, nil
}

// App exposes the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("dashboard listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for open requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requestContext gives each request its own cancellable context with a deadline.
// fasthttp does not report client disconnects, so the deadline bounds upstream work.
func (s *Server) requestContext(c *fiber.Ctx) error {
	if s.requestTimeout <= 0 {
		return c.Next()
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), s.requestTimeout)
	defer cancel()
	c.SetUserContext(ctx)
	return c.Next()
}

func (s *Server) routes() {
	s.app.Get("/", s.handlePage)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/charts/:file", s.handleChart)

	api := s.app.Group("/api/v1")
	api.Get("/dashboard", s.handleDashboard)
	api.Get("/records.csv", s.handleRecordsCSV)
	api.Post("/refresh", s.handleRefresh)
}
