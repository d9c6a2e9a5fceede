// Package config provides configuration management for the console backend.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment       Environment
	ListenAddr        string
	DatabaseURL       string   // optional; table endpoints return empty results without it
	RedisURL          string   // optional; rate limiting falls back to in-memory
	AllowedOrigins    []string // CORS origins
	RateLimitRequests int64
	RateLimitPeriod   string
	SessionSecret     string
	SessionMaxAge     int // session lifetime in seconds (default: 86400)
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash; empty disables the session gate outside production
	SyncSchedule      string // cron spec for Notion sync, empty to disable
	SyncOnStart       bool   // run one sync at startup when a schedule is set
	MetricsEnabled    bool
	ShutdownTimeout   time.Duration
}

// LoadServerConfig reads server configuration from environment variables.
func LoadServerConfig() ServerConfig {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	sessionMaxAge := getEnvInt("SESSION_MAX_AGE", 86400)
	if sessionMaxAge < 0 {
		sessionMaxAge = 86400
	}

	rateLimitRequests := int64(getEnvInt("RATE_LIMIT_REQUESTS", 100))
	if rateLimitRequests <= 0 {
		rateLimitRequests = 100
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":" + getEnvString("PORT", "8080")
	}

	adminUsername := getEnvString("ADMIN_USERNAME", "admin")

	return ServerConfig{
		Environment:       env,
		ListenAddr:        listenAddr,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		AllowedOrigins:    getEnvList("CORS_ORIGINS"),
		RateLimitRequests: rateLimitRequests,
		RateLimitPeriod:   getEnvString("RATE_LIMIT_PERIOD", "1m"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionMaxAge:     sessionMaxAge,
		AdminUsername:     adminUsername,
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SyncSchedule:      os.Getenv("SYNC_SCHEDULE"),
		SyncOnStart:       getEnvBool("SYNC_ON_START", false),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// AuthEnabled reports whether the session gate should protect console routes.
func (c ServerConfig) AuthEnabled() bool {
	return c.AdminPasswordHash != ""
}

// getEnvString reads a string from an environment variable, returning the default if unset.
func getEnvString(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// getEnvList reads a comma-separated list, dropping empty entries.
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return []string{}
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvDuration reads a duration string, returning the default if unset or invalid.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}
