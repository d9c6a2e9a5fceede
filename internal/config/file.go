package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig holds the optional, non-secret settings read from a YAML file.
// Credentials are never read from the file.
type FileConfig struct {
	CORSOrigins  []string    `yaml:"cors_origins,omitempty"`
	RateLimit    RateLimit   `yaml:"rate_limit,omitempty"`
	SyncSchedule string      `yaml:"sync_schedule,omitempty"`
	Cloudflare   FileService `yaml:"cloudflare,omitempty"`
	Notion       FileService `yaml:"notion,omitempty"`
	Supabase     FileService `yaml:"supabase,omitempty"`
	Proxy        ProxyConfig `yaml:"proxy,omitempty"`
}

// RateLimit is the rate limiting section of the config file.
type RateLimit struct {
	Requests int64  `yaml:"requests,omitempty"`
	Period   string `yaml:"period,omitempty"`
}

// FileService holds per-service, non-secret overrides.
type FileService struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	URL        string `yaml:"url,omitempty"`
	Version    string `yaml:"version,omitempty"`
	AccountID  string `yaml:"account_id,omitempty"`
	DatabaseID string `yaml:"database_id,omitempty"`
}

// LoadFile reads the configuration file at path.
// An empty path or a missing file yields an empty config.
func LoadFile(path string) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// ApplyFile fills server settings the environment left unset.
func (c *ServerConfig) ApplyFile(file *FileConfig) {
	if file == nil {
		return
	}
	if len(c.AllowedOrigins) == 0 && len(file.CORSOrigins) > 0 {
		c.AllowedOrigins = file.CORSOrigins
	}
	if os.Getenv("RATE_LIMIT_REQUESTS") == "" && file.RateLimit.Requests > 0 {
		c.RateLimitRequests = file.RateLimit.Requests
	}
	if os.Getenv("RATE_LIMIT_PERIOD") == "" && file.RateLimit.Period != "" {
		c.RateLimitPeriod = file.RateLimit.Period
	}
	if c.SyncSchedule == "" {
		c.SyncSchedule = file.SyncSchedule
	}
}
