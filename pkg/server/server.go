// Package server exposes the status API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"jpltour/pkg/config"
	"jpltour/pkg/handlers"
	"jpltour/pkg/logger"
	"jpltour/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server constants
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
)

// HTTPServer represents the HTTP server component
type HTTPServer struct {
	server *http.Server
	engine *gin.Engine
	svc    *handlers.HandlerService
	cfg    *config.ServerConfig
}

// NewHTTPServer builds the router. Nothing listens until Start.
func NewHTTPServer(cfg *config.ServerConfig, svc *handlers.HandlerService) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &HTTPServer{
		engine: engine,
		svc:    svc,
		cfg:    cfg,
	}
	s.addMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Listen,
		Handler:      engine,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
	return s
}

func (s *HTTPServer) addMiddleware() {
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.GinZapLogger())
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.ErrorHandler())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.AllowOrigins) == 0 || (len(s.cfg.AllowOrigins) == 1 && s.cfg.AllowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowOrigins
	}
	s.engine.Use(cors.New(corsCfg))
}

func (s *HTTPServer) setupRoutes() {
	s.engine.GET("/health", s.svc.HealthCheck)

	api := s.engine.Group("/api/v1")
	api.GET("/status", s.svc.GetStatus)
	api.GET("/state", s.svc.GetState)
	api.GET("/runs", s.svc.GetRuns)
	api.POST("/runs", s.svc.TriggerRun)
}

// Handler returns the router, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown.
func (s *HTTPServer) Start() error {
	logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
