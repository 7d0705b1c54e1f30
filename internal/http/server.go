// Package http provides the HTTP API for coachd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/planner"
)

// Planner runs one planning request end to end.
type Planner interface {
	Run(ctx context.Context, req planner.Request) planner.Result
}

// Catalog reports the size of the exercise catalog for health checks.
type Catalog interface {
	Count() int
}

// Server provides HTTP endpoints for coachd.
type Server struct {
	echo    *echo.Echo
	planner Planner
	catalog Catalog
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(p Planner, catalog Catalog, logger *zap.Logger, cfg *Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("planner cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics().Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		planner: p,
		catalog: catalog,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/v1")
	v1.POST("/plans", s.handleCreatePlan)
}

// handleHealth returns service status and the catalog size.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Exercises: -1}
	if s.catalog != nil {
		resp.Exercises = s.catalog.Count()
	}
	return c.JSON(http.StatusOK, resp)
}

// handleCreatePlan runs the planning pipeline for the posted request.
//
// The pipeline never returns a Go error; failures are carried inside the
// result. A result with no final plan maps to 422 so clients can
// distinguish rejected input from a produced plan that merely carries
// warnings.
func (s *Server) handleCreatePlan(c echo.Context) error {
	var req planner.Request
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid plan request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result := s.planner.Run(c.Request().Context(), req)

	if result.FinalPlan == nil {
		return c.JSON(http.StatusUnprocessableEntity, result)
	}
	return c.JSON(http.StatusOK, result)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
