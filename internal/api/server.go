// Package api exposes scraper control and the collected data over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/dashboard"
	"github.com/IshaanNene/HoaxWatch/internal/engine"
	"github.com/IshaanNene/HoaxWatch/internal/observability"
	"github.com/IshaanNene/HoaxWatch/internal/storage"
)

// GracefulShutdownTimeout bounds how long in-flight requests may run after
// the server is asked to stop.
const GracefulShutdownTimeout = 10 * time.Second

// Scraper is the control surface the API drives.
type Scraper interface {
	Status(ctx context.Context) engine.Status
	SourceMetrics(ctx context.Context) ([]engine.SourceMetrics, error)
	SourceName(key string) (string, error)
	RunSourceOnce(ctx context.Context, key string) (engine.CycleResult, error)
	RunAllOnce(ctx context.Context) engine.BatchResult
	Start(interval time.Duration) map[string]bool
	Stop() map[string]bool
	StartSource(key string, interval time.Duration) (bool, error)
	StopSource(key string) (bool, error)
	Running() bool
}

// Server is the REST API.
type Server struct {
	echo    *echo.Echo
	scraper Scraper
	store   storage.Store
	metrics *observability.Metrics
	cfg     Config
	logger  *slog.Logger
}

// Config holds the settings the server needs from the application config.
type Config struct {
	Port        int
	CORSOrigins []string
	MetricsPath string
	Version     string
}

// ConfigFrom extracts the server settings from cfg.
func ConfigFrom(cfg *config.Config) Config {
	c := Config{
		Port:        cfg.API.Port,
		CORSOrigins: cfg.API.CORSOrigins,
		Version:     config.Version,
	}
	if cfg.Metrics.Enabled {
		c.MetricsPath = cfg.Metrics.Path
	}
	return c
}

// NewServer creates the API server. metrics may be nil, in which case the
// metrics route is not mounted.
func NewServer(cfg Config, scraper Scraper, store storage.Store, metrics *observability.Metrics, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		scraper: scraper,
		store:   store,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger.With("component", "api_server"),
	}
	e.HTTPErrorHandler = errorHandler(s.logger)

	e.Use(requestLogger(s.logger))
	e.Use(middleware.Recover())
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	scraper := s.echo.Group("/api/scraper")
	scraper.GET("/status", s.handleStatus)
	scraper.GET("/metrics", s.handleSourceMetrics)
	scraper.POST("/run", s.handleRunAll)
	scraper.POST("/run/:key", s.handleRunSource)
	scraper.POST("/start", s.handleStartAll)
	scraper.POST("/stop", s.handleStopAll)
	scraper.POST("/sources/:key/start", s.handleStartSource)
	scraper.POST("/sources/:key/stop", s.handleStopSource)

	data := s.echo.Group("/api")
	data.GET("/articles", s.handleArticles)
	data.GET("/news", s.handleNews)
	data.GET("/runs", s.handleRuns)
	data.GET("/sources/:key/runs", s.handleSourceRuns)
	data.GET("/stats", s.handleStats)

	if s.metrics != nil && s.cfg.MetricsPath != "" {
		s.echo.GET(s.cfg.MetricsPath, echo.WrapHandler(s.metrics))
	}
	s.echo.GET("/dashboard", echo.WrapHandler(dashboard.Handler()))
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("API server starting", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}
