package notion

import (
	"net/http"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/rs/zerolog"
)

// Action names.
const (
	ActionDatabases  = "databases"
	ActionDatabase   = "database"
	ActionProperties = "properties"
	ActionQuery      = "query"
	ActionPage       = "page"
)

// PageSize is the number of results requested per query page.
const PageSize = 100

// LastUpdatedSort orders the properties database by its "Last Updated" column.
var LastUpdatedSort = []Sort{{Property: "Last Updated", Direction: "descending"}}

var searchDatabases = map[string]any{
	"filter": map[string]string{
		"property": "object",
		"value":    "database",
	},
}

// Service returns the Notion action table bound to cfg.
func Service(cfg config.NotionConfig) adapter.Service {
	return adapter.Service{
		Name:        "notion",
		DisplayName: "Notion",
		BaseURL:     cfg.BaseURL,
		Vars: map[string]string{
			"api_token":   cfg.APIToken,
			"database_id": cfg.DatabaseID,
		},
		Headers: map[string]string{
			"Authorization":  "Bearer {api_token}",
			"Notion-Version": versionOrDefault(cfg.Version),
		},
		Actions: []adapter.Action{
			{
				Name:    ActionDatabases,
				Method:  http.MethodPost,
				Path:    "/search",
				Body:    searchDatabases,
				Extract: adapter.ListField("results"),
			},
			{
				Name:    ActionDatabase,
				Path:    "/databases/{databaseId}",
				Params:  []string{"databaseId"},
				Extract: adapter.Root(),
			},
			{
				Name:    ActionProperties,
				Method:  http.MethodPost,
				Path:    "/databases/{database_id}/query",
				Body:    QueryRequest{PageSize: PageSize, Sorts: LastUpdatedSort},
				Extract: adapter.ListField("results"),
			},
			{
				Name:    ActionQuery,
				Method:  http.MethodPost,
				Path:    "/databases/{databaseId}/query",
				Params:  []string{"databaseId"},
				Body:    QueryRequest{PageSize: PageSize},
				Extract: adapter.ListField("results"),
			},
			{
				Name:    ActionPage,
				Path:    "/pages/{pageId}",
				Params:  []string{"pageId"},
				Extract: adapter.Root(),
			},
		},
	}
}

// New creates the Notion adapter.
func New(cfg config.NotionConfig, client *http.Client, logger zerolog.Logger, opts ...adapter.Option) (*adapter.Adapter, error) {
	return adapter.New(Service(cfg), client, logger, opts...)
}

func versionOrDefault(v string) string {
	if v == "" {
		return config.DefaultNotionVersion
	}
	return v
}
