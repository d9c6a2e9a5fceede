package cloudflare

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	server *httptest.Server
	calls  atomic.Int32
	paths  chan string
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{paths: make(chan string, 16)}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer cf-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.paths <- r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestAdapter(t *testing.T, baseURL string) *adapter.Adapter {
	t.Helper()
	a, err := New(config.CloudflareConfig{
		BaseURL:   baseURL,
		APIToken:  "cf-token",
		AccountID: "acc-1",
	}, http.DefaultClient, zerolog.Nop())
	require.NoError(t, err)
	return a
}

func TestService_ActionTable(t *testing.T) {
	a := newTestAdapter(t, "http://example.invalid")

	var names []string
	for _, action := range a.Actions() {
		names = append(names, action.Name)
	}
	assert.Equal(t, []string{"workers", "worker-details", "kv", "r2", "d1"}, names)
}

func TestWorkers(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"success":true,"errors":[],"result":[{"id":"w1"}]}`)
	a := newTestAdapter(t, api.server.URL)

	status, env := a.Handle(context.Background(), adapter.Request{Action: ActionWorkers})

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.JSONEq(t, `[{"id":"w1"}]`, string(env.Data))
	assert.Equal(t, "/accounts/acc-1/workers/scripts", <-api.paths)
}

func TestListActionsUpstreamPaths(t *testing.T) {
	tests := []struct {
		action string
		path   string
	}{
		{ActionKV, "/accounts/acc-1/storage/kv/namespaces"},
		{ActionR2, "/accounts/acc-1/r2/buckets"},
		{ActionD1, "/accounts/acc-1/d1/database"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			api := newFakeAPI(t, http.StatusOK, `{"success":true}`)
			a := newTestAdapter(t, api.server.URL)

			status, env := a.Handle(context.Background(), adapter.Request{Action: tt.action})

			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "[]", string(env.Data))
			assert.Equal(t, tt.path, <-api.paths)
		})
	}
}

func TestWorkerDetails(t *testing.T) {
	t.Run("returns the result object", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{"success":true,"result":{"id":"api","default_environment":{"environment":"production"}}}`)
		a := newTestAdapter(t, api.server.URL)

		status, env := a.Handle(context.Background(), adapter.Request{
			Action: ActionWorkerDetails,
			Params: map[string]string{"workerName": "api"},
		})

		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"id":"api","default_environment":{"environment":"production"}}`, string(env.Data))
		assert.Equal(t, "/accounts/acc-1/workers/services/api", <-api.paths)
	})

	t.Run("missing workerName", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, `{}`)
		a := newTestAdapter(t, api.server.URL)

		status, env := a.Handle(context.Background(), adapter.Request{Action: ActionWorkerDetails})

		assert.Equal(t, http.StatusBadRequest, status)
		assert.False(t, env.Success)
		assert.Equal(t, "Missing workerName", env.Error)
		assert.Equal(t, int32(0), api.calls.Load())
	})
}

func TestWorkerDetailsDotSegment(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"result":{}}`)
	a := newTestAdapter(t, api.server.URL)

	status, env := a.Handle(context.Background(), adapter.Request{
		Action: "worker-details",
		Params: map[string]string{"workerName": ".."},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid workerName", env.Error)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestBogusAction(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	a := newTestAdapter(t, api.server.URL)

	status, env := a.Handle(context.Background(), adapter.Request{
		Action: "bogus",
		Params: map[string]string{"workerName": "api"},
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or missing action", env.Error)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestUpstreamForbidden(t *testing.T) {
	api := newFakeAPI(t, http.StatusForbidden, `{"success":false,"errors":[{"code":10000,"message":"Authentication error"}]}`)
	a := newTestAdapter(t, api.server.URL)

	status, env := a.Handle(context.Background(), adapter.Request{Action: ActionKV})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Cloudflare API error: 403", env.Error)
}

func TestMissingCredentials(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	a, err := New(config.CloudflareConfig{BaseURL: api.server.URL, APIToken: "cf-token"}, http.DefaultClient, zerolog.Nop())
	require.NoError(t, err)

	status, env := a.Handle(context.Background(), adapter.Request{Action: ActionWorkers})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Cloudflare API not configured", env.Error)
	assert.Equal(t, int32(0), api.calls.Load())
}
