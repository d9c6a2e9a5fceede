// Package api provides the HTTP API for the console server.
package api

import (
	"errors"

	"github.com/MacJediWizard/console/internal/api/handlers"
	"github.com/MacJediWizard/console/internal/api/middleware"
	"github.com/MacJediWizard/console/internal/auth"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/MacJediWizard/console/internal/db"
	"github.com/MacJediWizard/console/internal/propsync"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
)

// Config holds configuration for the API router.
type Config struct {
	Environment config.Environment
	// AllowedOrigins for CORS. Empty means all origins allowed outside production.
	AllowedOrigins []string
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// MaxBodyBytes bounds request bodies. Zero uses middleware.DefaultBodyLimit.
	MaxBodyBytes int64
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		Environment:       config.EnvDevelopment,
		AllowedOrigins:    []string{},
		RateLimitRequests: 100,
		RateLimitPeriod:   "1m",
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// Deps are the collaborators wired into the router. Every field except
// Integrations is optional.
type Deps struct {
	Integrations []handlers.Integration
	// DB backs the table endpoints and the database health check.
	DB *db.DB
	// Sessions and Authenticator enable the session gate. Both or neither.
	Sessions      *auth.SessionStore
	Authenticator handlers.Authenticator
	Syncer        *propsync.Syncer
	// Gatherer serves /metrics.
	Gatherer prometheus.Gatherer
	// RateLimitStore defaults to an in-memory store.
	RateLimitStore limiter.Store
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router with the given dependencies.
func NewRouter(cfg Config, deps Deps, logger zerolog.Logger) (*Router, error) {
	if (deps.Sessions == nil) != (deps.Authenticator == nil) {
		return nil, errors.New("sessions and authenticator must be configured together")
	}
	if cfg.Environment == config.EnvProduction && len(cfg.AllowedOrigins) == 0 {
		return nil, errors.New("allowed origins must be set in production")
	}

	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultBodyLimit
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestID())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.SecurityHeaders())
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment, logger))
	r.Engine.Use(middleware.BodyLimit(maxBody))

	store := deps.RateLimitStore
	if store == nil {
		var err error
		if store, err = middleware.NewRateLimitStore(nil); err != nil {
			return nil, err
		}
	}
	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod, store)
	if err != nil {
		return nil, err
	}

	// Keep interface values nil when the database is absent.
	var (
		dbChecker handlers.DatabaseHealthChecker
		tables    handlers.TableQuerier
	)
	if deps.DB != nil {
		dbChecker = deps.DB
		tables = deps.DB
	}

	// Health check endpoints (no auth required)
	handlers.NewHealthHandler(dbChecker, deps.Integrations, logger).RegisterPublicRoutes(r.Engine)

	// Prometheus metrics endpoint (no auth required)
	if deps.Gatherer != nil {
		handlers.NewMetricsHandler(deps.Gatherer, logger).RegisterPublicRoutes(r.Engine)
	}

	// Version endpoint (no auth required)
	versionHandler := handlers.NewVersionHandler(cfg.Version, cfg.Commit, cfg.BuildDate, logger)
	versionHandler.RegisterPublicRoutes(r.Engine)

	// Auth routes (no auth required)
	if deps.Sessions != nil {
		authGroup := r.Engine.Group("/auth")
		authGroup.Use(rateLimiter)
		handlers.NewAuthHandler(deps.Authenticator, deps.Sessions, logger).RegisterRoutes(authGroup)
	}

	apiGroup := r.Engine.Group("/api")
	apiGroup.Use(rateLimiter)
	versionHandler.RegisterRoutes(apiGroup)

	// Everything below requires a session when the gate is enabled.
	protected := apiGroup.Group("")
	if deps.Sessions != nil {
		protected.Use(middleware.AuthMiddleware(deps.Sessions, logger))
	} else {
		r.logger.Warn().Msg("session gate disabled, console API is unauthenticated")
	}

	handlers.NewIntegrationsHandler(deps.Integrations, logger).RegisterRoutes(protected)

	apiV1 := protected.Group("/v1")
	handlers.NewPropertiesHandler(tables, logger).RegisterRoutes(apiV1)
	if deps.Syncer != nil {
		handlers.NewSyncHandler(deps.Syncer, logger).RegisterRoutes(apiV1)
	}

	r.logger.Info().
		Int("integrations", len(deps.Integrations)).
		Bool("database", deps.DB != nil).
		Bool("auth", deps.Sessions != nil).
		Bool("sync", deps.Syncer != nil).
		Msg("API router initialized")
	return r, nil
}
