package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/logging"
)

// Option configures the server.
type Option func(*Server)

// WithLogger attaches a logger for request and lifecycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server is the read-only web preview of the catalog. It renders the
// track index from the store per request and streams track files from
// disk; nothing it serves is cached or precomputed.
type Server struct {
	cfg    *config.Config
	store  *catalog.Store
	logger *slog.Logger
	app    *fiber.App
}

// New constructs the preview server and registers its routes.
func New(cfg *config.Config, store *catalog.Store, opts ...Option) *Server {
	server := &Server{cfg: cfg, store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(server)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	server.app = app
	server.registerRoutes()
	return server
}

func (s *Server) registerRoutes() {
	s.app.Get("/", s.handleIndex)
	s.app.Get("/tracks/:id", s.handleTrackFile)
	if s.cfg.Server.StaticDir != "" {
		s.app.Static("/static", s.cfg.Server.StaticDir)
	}
}

// App exposes the underlying fiber app for in-process request tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the listener and blocks until ctx is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()
	s.logger.Info("web preview listening", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down web preview")
		if err := s.app.Shutdown(); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
