// Package supabase defines the Supabase REST actions exposed through the console adapter.
package supabase

import (
	"net/http"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/rs/zerolog"
)

// Action names.
const (
	ActionProperties = "properties"
	ActionProperty   = "property"
	ActionUnsynced   = "unsynced"
)

// Service returns the Supabase action table bound to cfg.
func Service(cfg config.SupabaseConfig) adapter.Service {
	return adapter.Service{
		Name:        "supabase",
		DisplayName: "Supabase",
		BaseURL:     cfg.RESTURL(),
		Vars: map[string]string{
			"service_role_key": cfg.ServiceRoleKey,
		},
		Headers: map[string]string{
			"apikey":        "{service_role_key}",
			"Authorization": "Bearer {service_role_key}",
		},
		Actions: []adapter.Action{
			{
				Name:    ActionProperties,
				Path:    "/cre_properties?select=*&order=updated_at.desc&limit=100",
				Extract: adapter.ListRoot(),
			},
			{
				Name:    ActionProperty,
				Path:    "/cre_properties?select=*&id=eq.{propertyId}",
				Params:  []string{"propertyId"},
				Extract: adapter.FirstRow(),
			},
			{
				Name:    ActionUnsynced,
				Path:    "/cre_properties?select=id,address,city,state&notion_id=is.null",
				Extract: adapter.ListRoot(),
			},
		},
	}
}

// New creates the Supabase adapter.
func New(cfg config.SupabaseConfig, client *http.Client, logger zerolog.Logger, opts ...adapter.Option) (*adapter.Adapter, error) {
	return adapter.New(Service(cfg), client, logger, opts...)
}
