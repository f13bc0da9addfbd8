// Package api provides the HTTP API server for the Lakekeeper catalog.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	catalogapi "github.com/lakekeeper/lakekeeper/internal/api/catalog"
	"github.com/lakekeeper/lakekeeper/internal/api/handlers"
	"github.com/lakekeeper/lakekeeper/internal/api/management"
	"github.com/lakekeeper/lakekeeper/internal/api/middleware"
	"github.com/lakekeeper/lakekeeper/internal/catalog/extiface"
	"github.com/lakekeeper/lakekeeper/internal/cdc/health"
	"github.com/lakekeeper/lakekeeper/internal/config"
	"github.com/lakekeeper/lakekeeper/internal/metrics"
)

// Server is the HTTP API server: the Iceberg REST catalog under
// /catalog, the project/warehouse management API under /management,
// and the ambient health/version/config/metrics endpoints.
type Server struct {
	cfg            *config.Config
	logger         *slog.Logger
	healthManager  *health.Manager
	catalogHandler *catalogapi.Handler
	mgmtHandler    *management.Handler
	tokenVerifier  extiface.TokenVerifier
	httpServer     *http.Server
	router         *gin.Engine
}

// ServerConfig holds server configuration options.
type ServerConfig struct {
	// Config is the application configuration.
	Config *config.Config

	// Logger is the structured logger.
	Logger *slog.Logger

	// HealthManager is the health check manager.
	HealthManager *health.Manager

	// CatalogHandler serves the Iceberg REST catalog endpoints.
	CatalogHandler *catalogapi.Handler

	// ManagementHandler serves the project/warehouse management endpoints.
	ManagementHandler *management.Handler

	// TokenVerifier validates bearer tokens for both protocol surfaces.
	// A nil verifier trusts an X-Principal-Id header instead, for local
	// development and deployments with no IdP wired yet (spec.md §6
	// ships no concrete verifier).
	TokenVerifier extiface.TokenVerifier

	// CORSConfig is the CORS configuration.
	CORSConfig middleware.CORSConfig

	// RateLimitConfig is the rate limiting configuration.
	RateLimitConfig middleware.RateLimitConfig
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig(cfg *config.Config, logger *slog.Logger) ServerConfig {
	return ServerConfig{
		Config:          cfg,
		Logger:          logger,
		HealthManager:   nil,
		CORSConfig:      middleware.DefaultCORSConfig(),
		RateLimitConfig: middleware.DefaultRateLimitConfig(),
	}
}

// NewServer creates a new API server.
func NewServer(serverCfg ServerConfig) *Server {
	logger := serverCfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Set Gin mode based on environment
	if serverCfg.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()

	// Register Prometheus metrics
	if serverCfg.Config.Metrics.Enabled {
		metrics.Register()
	}

	// Apply middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	if serverCfg.Config.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(serverCfg.CORSConfig))
	router.Use(middleware.RateLimiter(serverCfg.RateLimitConfig))

	// Create server
	s := &Server{
		cfg:            serverCfg.Config,
		logger:         logger.With("component", "api-server"),
		healthManager:  serverCfg.HealthManager,
		catalogHandler: serverCfg.CatalogHandler,
		mgmtHandler:    serverCfg.ManagementHandler,
		tokenVerifier:  serverCfg.TokenVerifier,
		router:         router,
	}

	// Register routes
	s.registerRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         serverCfg.Config.API.ListenAddr,
		Handler:      router,
		ReadTimeout:  serverCfg.Config.API.ReadTimeout,
		WriteTimeout: serverCfg.Config.API.WriteTimeout,
		IdleTimeout:  serverCfg.Config.API.ReadTimeout * 4,
	}

	return s
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	healthHandler := handlers.NewHealthHandler(s.healthManager)
	versionHandler := handlers.NewVersionHandler(s.cfg.Version)
	configHandler := handlers.NewConfigHandler(s.cfg)

	// Health endpoints (no versioning, no auth)
	s.router.GET("/health", healthHandler.GetHealth)
	s.router.GET("/health/live", healthHandler.GetLiveness)
	s.router.GET("/health/ready", healthHandler.GetReadiness)

	// Metrics endpoint (no versioning, no auth)
	if s.cfg.Metrics.Enabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// System endpoints (public, unversioned)
	s.router.GET("/version", versionHandler.GetVersion)
	s.router.GET("/config", configHandler.GetConfig)

	// Iceberg REST catalog, under /catalog; auth middleware applied by
	// catalogapi.RegisterRoutes itself.
	if s.catalogHandler != nil {
		catalogapi.RegisterRoutes(s.router, s.catalogHandler, s.tokenVerifier)
	}

	// Project/warehouse management API, under /management.
	if s.mgmtHandler != nil {
		management.RegisterRoutes(s.router, s.mgmtHandler, s.tokenVerifier)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.cfg.API.ListenAddr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")

	// Use a timeout context if none provided
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying Gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
