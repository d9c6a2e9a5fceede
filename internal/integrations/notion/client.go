package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MacJediWizard/console/internal/config"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when the Notion token or database ID is missing.
var ErrNotConfigured = errors.New("notion: API not configured")

// maxPages bounds pagination in case the API keeps returning has_more.
const maxPages = 1000

// Client reads and creates pages in the configured properties database.
type Client struct {
	baseURL    string
	apiToken   string
	version    string
	databaseID string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Notion API client.
func NewClient(cfg config.NotionConfig, httpClient *http.Client, logger zerolog.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		return nil, fmt.Errorf("notion client: http client is required")
	}

	parsedURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("notion client: invalid URL: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(parsedURL.String(), "/"),
		apiToken:   cfg.APIToken,
		version:    versionOrDefault(cfg.Version),
		databaseID: cfg.DatabaseID,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "notion_client").Logger(),
	}, nil
}

// QueryDatabase fetches one page of the properties database starting at cursor.
func (c *Client) QueryDatabase(ctx context.Context, cursor string) (*QueryResponse, error) {
	body, err := json.Marshal(QueryRequest{
		PageSize:    PageSize,
		StartCursor: cursor,
		Sorts:       LastUpdatedSort,
	})
	if err != nil {
		return nil, fmt.Errorf("notion: failed to marshal query: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/databases/"+url.PathEscape(c.databaseID)+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("notion: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion: failed to query database: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}

	var result QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("notion: failed to decode query response: %w", err)
	}

	return &result, nil
}

// AllPages follows next_cursor until the database is exhausted.
func (c *Client) AllPages(ctx context.Context) ([]Page, error) {
	var (
		pages  []Page
		cursor string
	)

	for i := 0; i < maxPages; i++ {
		result, err := c.QueryDatabase(ctx, cursor)
		if err != nil {
			return nil, err
		}
		pages = append(pages, result.Results...)

		c.logger.Debug().
			Int("retrieved", len(pages)).
			Bool("has_more", result.HasMore).
			Msg("queried properties database")

		if !result.HasMore || result.NextCursor == nil || *result.NextCursor == "" {
			return pages, nil
		}
		cursor = *result.NextCursor
	}

	return nil, fmt.Errorf("notion: pagination exceeded %d pages", maxPages)
}

// CreatePage adds a page with the given properties to the properties database.
func (c *Client) CreatePage(ctx context.Context, props map[string]any) (*Page, error) {
	body, err := json.Marshal(CreatePageRequest{
		Parent:     Parent{DatabaseID: c.databaseID},
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("notion: failed to marshal page: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/pages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("notion: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion: failed to create page: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("notion: failed to decode page: %w", err)
	}
	if page.ID == "" {
		return nil, errors.New("notion: created page has no id")
	}

	c.logger.Debug().Str("page_id", page.ID).Msg("created page")
	return &page, nil
}

// newRequest creates a new HTTP request with authentication
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// checkResponse checks if the HTTP response indicates an error
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		return &apiErr
	}

	return fmt.Errorf("notion: request failed with status %d: %s", resp.StatusCode, string(body))
}
