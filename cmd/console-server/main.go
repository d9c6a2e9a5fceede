// Package main is the entrypoint for the console API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/api"
	"github.com/MacJediWizard/console/internal/api/handlers"
	"github.com/MacJediWizard/console/internal/api/middleware"
	"github.com/MacJediWizard/console/internal/auth"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/MacJediWizard/console/internal/db"
	"github.com/MacJediWizard/console/internal/httpclient"
	"github.com/MacJediWizard/console/internal/integrations"
	"github.com/MacJediWizard/console/internal/integrations/notion"
	"github.com/MacJediWizard/console/internal/metrics"
	"github.com/MacJediWizard/console/internal/propsync"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting console server")

	// Load configuration
	file, err := config.LoadFile(os.Getenv("CONSOLE_CONFIG"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load config file")
		return 1
	}
	cfg := config.LoadServerConfig()
	cfg.ApplyFile(file)
	integrationsCfg := config.LoadIntegrations(file)

	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		if !cfg.AuthEnabled() {
			logger.Error().Msg("ADMIN_PASSWORD_HASH is required in production")
			return 1
		}
	}

	// Connect to database (optional)
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to database")
			return 1
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to run database migrations")
			return 1
		}
	} else {
		logger.Warn().Msg("DATABASE_URL not set, table endpoints will return empty results")
	}

	// Redis (optional) shares rate limits between instances
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("Invalid REDIS_URL")
			return 1
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis")
			return 1
		}
	}
	rateLimitStore, err := middleware.NewRateLimitStore(redisClient)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create rate limit store")
		return 1
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMetrics, err := metrics.NewPrometheusMetrics(registry)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register metrics")
		return 1
	}
	if database != nil {
		registry.MustRegister(metrics.NewPoolCollector(database, logger))
	}

	// Outbound HTTP client shared by every integration
	httpClient, err := httpclient.New(httpclient.Options{
		ProxyConfig: &integrationsCfg.Proxy,
		UserAgent:   "Console/" + Version,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create HTTP client")
		return 1
	}
	logger.Info().Str("proxy", httpclient.ProxyInfo(&integrationsCfg.Proxy)).Msg("Outbound HTTP client ready")

	adapters, err := integrations.Build(integrationsCfg, httpClient, logger, adapter.WithRecorder(promMetrics))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build integrations")
		return 1
	}
	exposed := make([]handlers.Integration, 0, len(adapters))
	for _, a := range adapters {
		exposed = append(exposed, a)
	}

	// Property sync needs both Notion and the database
	var syncer *propsync.Syncer
	if database != nil && integrationsCfg.Notion.Configured() {
		notionClient, err := notion.NewClient(integrationsCfg.Notion, httpClient, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Notion client")
			return 1
		}
		syncer = propsync.NewSyncer(notionClient, database, promMetrics, logger)
	}

	if cfg.SyncSchedule != "" {
		if syncer == nil {
			logger.Warn().Msg("SYNC_SCHEDULE set but Notion or the database is not configured, sync disabled")
		} else {
			scheduler := propsync.NewScheduler(syncer, cfg.SyncSchedule, logger)
			if err := scheduler.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start sync scheduler")
				return 1
			}
			defer func() {
				<-scheduler.Stop().Done()
			}()
			if cfg.SyncOnStart {
				logger.Info().Msg("Running initial property sync")
				go scheduler.RunNow()
			}
		}
	}

	deps := api.Deps{
		Integrations:   exposed,
		DB:             database,
		Syncer:         syncer,
		RateLimitStore: rateLimitStore,
	}
	if cfg.MetricsEnabled {
		deps.Gatherer = registry
	}

	// Session gate
	if cfg.AuthEnabled() {
		if cfg.SessionSecret == "" {
			logger.Error().Msg("SESSION_SECRET is required when ADMIN_PASSWORD_HASH is set")
			return 1
		}
		authn, err := auth.NewAuthenticator(cfg.AdminUsername, cfg.AdminPasswordHash)
		if err != nil {
			logger.Error().Err(err).Msg("Invalid admin credentials")
			return 1
		}
		sessionCfg := auth.DefaultSessionConfig([]byte(cfg.SessionSecret), cfg.Environment == config.EnvProduction)
		sessionCfg.MaxAge = cfg.SessionMaxAge
		sessions, err := auth.NewSessionStore(sessionCfg, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize session store")
			return 1
		}
		deps.Sessions = sessions
		deps.Authenticator = authn
	}

	routerCfg := api.Config{
		Environment:       cfg.Environment,
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
		Version:           Version,
		Commit:            Commit,
		BuildDate:         BuildDate,
	}

	router, err := api.NewRouter(routerCfg, deps, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize router")
		return 1
	}

	// Proxied calls carry no server-imposed deadline, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			return 1
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
