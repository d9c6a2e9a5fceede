package config

import (
	"os"
	"strings"
)

// Default upstream endpoints.
const (
	DefaultCloudflareBaseURL = "https://api.cloudflare.com/client/v4"
	DefaultNotionBaseURL     = "https://api.notion.com/v1"
	DefaultNotionVersion     = "2022-06-28"
)

// CloudflareConfig holds credentials for the Cloudflare API.
type CloudflareConfig struct {
	BaseURL   string
	APIToken  string
	AccountID string
}

// Configured returns true if every required value is present.
func (c CloudflareConfig) Configured() bool {
	return c.BaseURL != "" && c.APIToken != "" && c.AccountID != ""
}

// NotionConfig holds credentials for the Notion API.
type NotionConfig struct {
	BaseURL    string
	Version    string
	APIToken   string
	DatabaseID string // the CRE properties database
}

// Configured returns true if every required value is present.
func (c NotionConfig) Configured() bool {
	return c.BaseURL != "" && c.APIToken != "" && c.DatabaseID != ""
}

// SupabaseConfig holds credentials for the Supabase REST API.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
}

// Configured returns true if every required value is present.
func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.ServiceRoleKey != ""
}

// RESTURL returns the PostgREST base URL for the project.
func (c SupabaseConfig) RESTURL() string {
	if c.URL == "" {
		return ""
	}
	return strings.TrimRight(c.URL, "/") + "/rest/v1"
}

// ProxyConfig holds outbound proxy settings.
type ProxyConfig struct {
	HTTPProxy   string `yaml:"http_proxy,omitempty"`
	HTTPSProxy  string `yaml:"https_proxy,omitempty"`
	SOCKS5Proxy string `yaml:"socks5_proxy,omitempty"`
	NoProxy     string `yaml:"no_proxy,omitempty"`
}

// HasProxy returns true if any proxy is configured.
func (p *ProxyConfig) HasProxy() bool {
	return p.HTTPProxy != "" || p.HTTPSProxy != "" || p.SOCKS5Proxy != ""
}

// IntegrationsConfig groups the third-party service configuration.
// It is read once at startup and injected into the adapters.
type IntegrationsConfig struct {
	Cloudflare CloudflareConfig
	Notion     NotionConfig
	Supabase   SupabaseConfig
	Proxy      ProxyConfig
}

// LoadIntegrations reads third-party credentials from the environment.
// Non-secret values fall back to the optional config file.
func LoadIntegrations(file *FileConfig) IntegrationsConfig {
	if file == nil {
		file = &FileConfig{}
	}

	return IntegrationsConfig{
		Cloudflare: CloudflareConfig{
			BaseURL:   firstNonEmpty(os.Getenv("CLOUDFLARE_API_URL"), file.Cloudflare.BaseURL, DefaultCloudflareBaseURL),
			APIToken:  strings.TrimSpace(os.Getenv("CLOUDFLARE_API_TOKEN")),
			AccountID: firstNonEmpty(os.Getenv("CLOUDFLARE_ACCOUNT_ID"), file.Cloudflare.AccountID),
		},
		Notion: NotionConfig{
			BaseURL:    firstNonEmpty(os.Getenv("NOTION_API_URL"), file.Notion.BaseURL, DefaultNotionBaseURL),
			Version:    firstNonEmpty(os.Getenv("NOTION_VERSION"), file.Notion.Version, DefaultNotionVersion),
			APIToken:   strings.TrimSpace(os.Getenv("NOTION_API_TOKEN")),
			DatabaseID: firstNonEmpty(os.Getenv("NOTION_PROPERTIES_DATABASE_ID"), file.Notion.DatabaseID),
		},
		Supabase: SupabaseConfig{
			URL:            firstNonEmpty(os.Getenv("SUPABASE_URL"), file.Supabase.URL),
			ServiceRoleKey: strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY")),
		},
		Proxy: ProxyConfig{
			HTTPProxy:   firstNonEmpty(os.Getenv("HTTP_PROXY"), file.Proxy.HTTPProxy),
			HTTPSProxy:  firstNonEmpty(os.Getenv("HTTPS_PROXY"), file.Proxy.HTTPSProxy),
			SOCKS5Proxy: firstNonEmpty(os.Getenv("SOCKS5_PROXY"), file.Proxy.SOCKS5Proxy),
			NoProxy:     firstNonEmpty(os.Getenv("NO_PROXY"), file.Proxy.NoProxy),
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
