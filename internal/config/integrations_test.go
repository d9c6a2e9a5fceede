package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadIntegrations_Defaults(t *testing.T) {
	t.Setenv("CLOUDFLARE_API_URL", "")
	t.Setenv("CLOUDFLARE_API_TOKEN", "")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "")
	t.Setenv("NOTION_API_URL", "")
	t.Setenv("NOTION_VERSION", "")

	cfg := LoadIntegrations(nil)

	assert.Equal(t, DefaultCloudflareBaseURL, cfg.Cloudflare.BaseURL)
	assert.Equal(t, DefaultNotionBaseURL, cfg.Notion.BaseURL)
	assert.Equal(t, DefaultNotionVersion, cfg.Notion.Version)
	assert.False(t, cfg.Cloudflare.Configured())
}

func TestLoadIntegrations_FromEnvironment(t *testing.T) {
	t.Setenv("CLOUDFLARE_API_TOKEN", " cf-token ")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acc-123")
	t.Setenv("NOTION_API_TOKEN", "secret_abc")
	t.Setenv("NOTION_PROPERTIES_DATABASE_ID", "db-1")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co/")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")

	cfg := LoadIntegrations(nil)

	assert.Equal(t, "cf-token", cfg.Cloudflare.APIToken)
	assert.True(t, cfg.Cloudflare.Configured())
	assert.True(t, cfg.Notion.Configured())
	assert.True(t, cfg.Supabase.Configured())
	assert.Equal(t, "https://proj.supabase.co/rest/v1", cfg.Supabase.RESTURL())
}

func TestLoadIntegrations_FileFallback(t *testing.T) {
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "")
	t.Setenv("NOTION_PROPERTIES_DATABASE_ID", "")
	t.Setenv("SOCKS5_PROXY", "")

	file := &FileConfig{
		Cloudflare: FileService{AccountID: "from-file"},
		Notion:     FileService{DatabaseID: "notion-db-file"},
		Proxy:      ProxyConfig{SOCKS5Proxy: "socks5://127.0.0.1:1080"},
	}

	cfg := LoadIntegrations(file)

	assert.Equal(t, "from-file", cfg.Cloudflare.AccountID)
	assert.Equal(t, "notion-db-file", cfg.Notion.DatabaseID)
	assert.True(t, cfg.Proxy.HasProxy())
}

func TestSupabaseConfig_RESTURLEmpty(t *testing.T) {
	assert.Equal(t, "", SupabaseConfig{}.RESTURL())
}
