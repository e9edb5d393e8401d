// Package server exposes the monitor snapshot and the lifecycle commands
// over HTTP and a WebSocket stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"devmanager/internal/config"
	"devmanager/internal/constants"
	"devmanager/internal/lifecycle"
	"devmanager/internal/logger"
	"devmanager/internal/monitor"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowOrigins    []string
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            constants.DefaultServerHost,
		Port:            constants.DefaultServerPort,
		ReadTimeout:     constants.DefaultServerReadTimeout,
		WriteTimeout:    constants.DefaultServerWriteTimeout,
		ShutdownTimeout: constants.DefaultServerShutdownTimeout,
		AllowOrigins:    []string{"http://localhost", "http://127.0.0.1"},
	}
}

// ConfigFrom builds the server configuration from the global preferences
func ConfigFrom(global *config.GlobalConfig) *Config {
	cfg := DefaultConfig()
	if global != nil {
		if global.Server.Host != "" {
			cfg.Host = global.Server.Host
		}
		if global.Server.Port != 0 {
			cfg.Port = global.Server.Port
		}
	}
	return cfg
}

// Monitor is the part of the monitor the server reads and drives
type Monitor interface {
	Snapshot() monitor.Snapshot
	Find(nameOrID string) (monitor.Item, bool)
	PollOnce(ctx context.Context) error
	Subscribe(buffer int) (<-chan monitor.Snapshot, func())
}

// Dispatcher runs lifecycle commands
type Dispatcher interface {
	Dispatch(ctx context.Context, svc config.ServiceDescriptor, action lifecycle.Action) (*lifecycle.Outcome, error)
}

// Server represents the status API server
type Server struct {
	config     *Config
	echo       *echo.Echo
	monitor    Monitor
	dispatcher Dispatcher
	startTime  time.Time
	ready      bool
}

// New creates a server over a monitor and a dispatcher
func New(cfg *Config, mon Monitor, dispatcher Dispatcher) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	return &Server{
		config:     cfg,
		echo:       e,
		monitor:    mon,
		dispatcher: dispatcher,
		startTime:  time.Now(),
	}
}

// Echo returns the Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	s.setup()
	return s.echo
}

func (s *Server) setup() {
	if s.ready {
		return
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.ready = true
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start serves until ctx is cancelled or the process is interrupted
func (s *Server) Start(ctx context.Context) error {
	s.setup()

	addr := s.Addr()
	logger.WithField("addr", addr).Info("Starting status API server")

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: generateRequestID,
	}))
	s.echo.Use(logger.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	s.echo.Use(contextEnricher())
}
