package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_MissingFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadFile_EmptyPath(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFile_Parse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yml")
	content := `
cors_origins:
  - https://console.example.com
rate_limit:
  requests: 30
  period: 10s
sync_schedule: "*/15 * * * *"
cloudflare:
  account_id: acc-1
notion:
  database_id: db-1
  version: "2022-06-28"
supabase:
  url: https://proj.supabase.co
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://console.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, int64(30), cfg.RateLimit.Requests)
	assert.Equal(t, "10s", cfg.RateLimit.Period)
	assert.Equal(t, "*/15 * * * *", cfg.SyncSchedule)
	assert.Equal(t, "acc-1", cfg.Cloudflare.AccountID)
	assert.Equal(t, "db-1", cfg.Notion.DatabaseID)
	assert.Equal(t, "https://proj.supabase.co", cfg.Supabase.URL)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("cors_origins: [unterminated"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestServerConfig_ApplyFile(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "")
	t.Setenv("RATE_LIMIT_PERIOD", "")

	cfg := ServerConfig{RateLimitRequests: 100, RateLimitPeriod: "1m"}
	cfg.ApplyFile(&FileConfig{
		CORSOrigins:  []string{"https://a.example.com"},
		RateLimit:    RateLimit{Requests: 10, Period: "1h"},
		SyncSchedule: "@hourly",
	})

	assert.Equal(t, []string{"https://a.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(10), cfg.RateLimitRequests)
	assert.Equal(t, "1h", cfg.RateLimitPeriod)
	assert.Equal(t, "@hourly", cfg.SyncSchedule)
}

func TestServerConfig_ApplyFileEnvironmentWins(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "50")

	cfg := ServerConfig{RateLimitRequests: 50, SyncSchedule: "@daily"}
	cfg.ApplyFile(&FileConfig{
		RateLimit:    RateLimit{Requests: 10},
		SyncSchedule: "@hourly",
	})

	assert.Equal(t, int64(50), cfg.RateLimitRequests)
	assert.Equal(t, "@daily", cfg.SyncSchedule)
}
