// Package cloudflare defines the Cloudflare actions exposed through the console adapter.
package cloudflare

import (
	"net/http"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/rs/zerolog"
)

// Action names.
const (
	ActionWorkers       = "workers"
	ActionWorkerDetails = "worker-details"
	ActionKV            = "kv"
	ActionR2            = "r2"
	ActionD1            = "d1"
)

// Service returns the Cloudflare action table bound to cfg.
func Service(cfg config.CloudflareConfig) adapter.Service {
	return adapter.Service{
		Name:        "cloudflare",
		DisplayName: "Cloudflare",
		BaseURL:     cfg.BaseURL,
		Vars: map[string]string{
			"api_token":  cfg.APIToken,
			"account_id": cfg.AccountID,
		},
		Headers: map[string]string{
			"Authorization": "Bearer {api_token}",
		},
		Actions: []adapter.Action{
			{
				Name:    ActionWorkers,
				Path:    "/accounts/{account_id}/workers/scripts",
				Extract: adapter.ListField("result"),
			},
			{
				Name:    ActionWorkerDetails,
				Path:    "/accounts/{account_id}/workers/services/{workerName}",
				Params:  []string{"workerName"},
				Extract: adapter.ObjectField("result"),
			},
			{
				Name:    ActionKV,
				Path:    "/accounts/{account_id}/storage/kv/namespaces",
				Extract: adapter.ListField("result"),
			},
			{
				Name:    ActionR2,
				Path:    "/accounts/{account_id}/r2/buckets",
				Extract: adapter.ListField("result"),
			},
			{
				Name:    ActionD1,
				Path:    "/accounts/{account_id}/d1/database",
				Extract: adapter.ListField("result"),
			},
		},
	}
}

// New creates the Cloudflare adapter.
func New(cfg config.CloudflareConfig, client *http.Client, logger zerolog.Logger, opts ...adapter.Option) (*adapter.Adapter, error) {
	return adapter.New(Service(cfg), client, logger, opts...)
}
