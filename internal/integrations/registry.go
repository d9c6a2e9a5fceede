// Package integrations assembles the external-API adapters exposed by the console.
package integrations

import (
	"fmt"
	"net/http"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/MacJediWizard/console/internal/integrations/cloudflare"
	"github.com/MacJediWizard/console/internal/integrations/notion"
	"github.com/MacJediWizard/console/internal/integrations/supabase"
	"github.com/rs/zerolog"
)

// Build creates one adapter per integrated service, in route order. Unconfigured
// services are still built; their calls fail with a configuration error.
func Build(cfg config.IntegrationsConfig, client *http.Client, logger zerolog.Logger, opts ...adapter.Option) ([]*adapter.Adapter, error) {
	builders := []struct {
		name string
		new  func() (*adapter.Adapter, error)
	}{
		{"cloudflare", func() (*adapter.Adapter, error) { return cloudflare.New(cfg.Cloudflare, client, logger, opts...) }},
		{"notion", func() (*adapter.Adapter, error) { return notion.New(cfg.Notion, client, logger, opts...) }},
		{"supabase", func() (*adapter.Adapter, error) { return supabase.New(cfg.Supabase, client, logger, opts...) }},
	}

	adapters := make([]*adapter.Adapter, 0, len(builders))
	for _, b := range builders {
		a, err := b.new()
		if err != nil {
			return nil, fmt.Errorf("build %s adapter: %w", b.name, err)
		}
		if !a.Configured() {
			logger.Warn().Str("service", a.Name()).Msg("integration not configured")
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// Lookup returns the adapter with the given route name.
func Lookup(adapters []*adapter.Adapter, name string) (*adapter.Adapter, bool) {
	for _, a := range adapters {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}
