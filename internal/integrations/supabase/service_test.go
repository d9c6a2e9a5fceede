package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, seen chan<- *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			seen <- r.Clone(context.Background())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAdapter(t *testing.T, url string) *adapter.Adapter {
	t.Helper()
	a, err := New(config.SupabaseConfig{URL: url, ServiceRoleKey: "service-key"}, http.DefaultClient, zerolog.Nop())
	require.NoError(t, err)
	return a
}

func TestPropertiesList(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := newTestServer(t, http.StatusOK, `[{"id":"a","address":"1 Main St"}]`, seen)
	a := newTestAdapter(t, srv.URL+"/")

	status, env := a.Handle(context.Background(), adapter.Request{Action: ActionProperties})

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"id":"a","address":"1 Main St"}]`, string(env.Data))

	req := <-seen
	assert.Equal(t, "/rest/v1/cre_properties", req.URL.Path)
	assert.Equal(t, "*", req.URL.Query().Get("select"))
	assert.Equal(t, "updated_at.desc", req.URL.Query().Get("order"))
	assert.Equal(t, "100", req.URL.Query().Get("limit"))
	assert.Equal(t, "service-key", req.Header.Get("apikey"))
	assert.Equal(t, "Bearer service-key", req.Header.Get("Authorization"))
}

func TestUnsyncedNullPayload(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := newTestServer(t, http.StatusOK, `null`, seen)
	a := newTestAdapter(t, srv.URL)

	status, env := a.Handle(context.Background(), adapter.Request{Action: ActionUnsynced})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", string(env.Data))

	req := <-seen
	assert.Equal(t, "id,address,city,state", req.URL.Query().Get("select"))
	assert.Equal(t, "is.null", req.URL.Query().Get("notion_id"))
}

func TestProperty(t *testing.T) {
	t.Run("first row", func(t *testing.T) {
		seen := make(chan *http.Request, 1)
		srv := newTestServer(t, http.StatusOK, `[{"id":"a&b"},{"id":"ignored"}]`, seen)
		a := newTestAdapter(t, srv.URL)

		status, env := a.Handle(context.Background(), adapter.Request{
			Action: ActionProperty,
			Params: map[string]string{"propertyId": "a&b"},
		})

		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"id":"a&b"}`, string(env.Data))
		assert.Equal(t, "eq.a&b", (<-seen).URL.Query().Get("id"))
	})

	t.Run("no rows", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, `[]`, nil)
		a := newTestAdapter(t, srv.URL)

		status, env := a.Handle(context.Background(), adapter.Request{
			Action: ActionProperty,
			Params: map[string]string{"propertyId": "missing"},
		})

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Supabase API error: 404", env.Error)
	})

	t.Run("missing propertyId", func(t *testing.T) {
		a := newTestAdapter(t, "http://127.0.0.1:1")

		status, env := a.Handle(context.Background(), adapter.Request{Action: ActionProperty})

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Missing propertyId", env.Error)
	})
}

func TestSupabaseNotConfigured(t *testing.T) {
	a, err := New(config.SupabaseConfig{ServiceRoleKey: "service-key"}, http.DefaultClient, zerolog.Nop())
	require.NoError(t, err)

	status, env := a.Handle(context.Background(), adapter.Request{Action: ActionProperties})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Supabase API not configured", env.Error)
}

func TestSupabaseUpstreamError(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized, `{"message":"Invalid API key"}`, nil)
	a := newTestAdapter(t, srv.URL)

	status, env := a.Handle(context.Background(), adapter.Request{Action: ActionProperties})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Supabase API error: 401", env.Error)
}
