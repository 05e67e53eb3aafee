// Package server exposes the dashboard over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"retail-demand-optimizer/internal/config"
)

// Pinger checks the storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP server. Metrics, Observer and DB
// may be nil.
type Deps struct {
	Views      Views
	Forecaster Forecaster
	DB         Pinger
	Metrics    http.Handler
	Observer   RequestObserver
}

// Server wraps an Echo instance.
type Server struct {
	echo   *echo.Echo
	cfg    config.ServerConfig
	logger zerolog.Logger
}

// New builds the server and registers every route.
func New(deps Deps, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "http").Logger()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(recoverPanics(logger))
	e.Use(requestLogging(logger, deps.Observer))

	NewHandler(deps.Views, deps.Forecaster, cfg.MaxHorizon).RegisterRoutes(e)

	e.GET("/healthz", func(c echo.Context) error {
		if deps.DB != nil {
			if err := deps.DB.Ping(c.Request().Context()); err != nil {
				return DataResponse(c, http.StatusServiceUnavailable, err.Error())
			}
		}
		return SuccessResponse(c, "ok")
	})
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}

	return &Server{echo: e, cfg: cfg, logger: logger}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}
