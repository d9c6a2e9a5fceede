package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type mockDatabaseHealthChecker struct {
	pingErr error
	health  map[string]any
}

func (m *mockDatabaseHealthChecker) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockDatabaseHealthChecker) Health() map[string]any {
	if m.health != nil {
		return m.health
	}
	return map[string]any{}
}

func setupHealthTestRouter(db DatabaseHealthChecker, integrations []Integration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHealthHandler(db, integrations, zerolog.Nop())
	handler.RegisterPublicRoutes(r)
	return r
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	return resp
}

func TestHealthOverall(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		db := &mockDatabaseHealthChecker{health: map[string]any{"total_conns": int32(10)}}
		r := setupHealthTestRouter(db, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decodeHealth(t, w)
		if resp.Status != HealthStatusHealthy {
			t.Fatalf("expected healthy status, got %q", resp.Status)
		}
		if resp.Checks["database"].Details["configured"] != true {
			t.Fatalf("expected database configured, got %v", resp.Checks["database"].Details)
		}
	})

	t.Run("database unhealthy", func(t *testing.T) {
		db := &mockDatabaseHealthChecker{pingErr: errors.New("connection refused")}
		r := setupHealthTestRouter(db, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", w.Code)
		}
		resp := decodeHealth(t, w)
		if resp.Status != HealthStatusUnhealthy {
			t.Fatalf("expected unhealthy status, got %q", resp.Status)
		}
	})

	t.Run("no database", func(t *testing.T) {
		r := setupHealthTestRouter(nil, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		resp := decodeHealth(t, w)
		if resp.Checks["database"].Details["configured"] != false {
			t.Fatalf("expected database not configured, got %v", resp.Checks["database"].Details)
		}
	})

	t.Run("reports integration configuration", func(t *testing.T) {
		integrations := []Integration{
			newTestIntegration(t, "cloudflare", "http://127.0.0.1:1", "token"),
			newTestIntegration(t, "notion", "http://127.0.0.1:1", ""),
		}
		r := setupHealthTestRouter(nil, integrations)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		details := decodeHealth(t, w).Checks["integrations"].Details
		cf, _ := details["cloudflare"].(map[string]any)
		if cf["configured"] != true {
			t.Fatalf("expected cloudflare configured, got %v", details)
		}
		notion, _ := details["notion"].(map[string]any)
		if notion["configured"] != false {
			t.Fatalf("expected notion not configured, got %v", details)
		}
	})
}

func TestHealthDatabase(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := setupHealthTestRouter(&mockDatabaseHealthChecker{}, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health/db", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		r := setupHealthTestRouter(&mockDatabaseHealthChecker{pingErr: errors.New("timeout")}, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health/db", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", w.Code)
		}
		resp := decodeHealth(t, w)
		if resp.Error != "database ping failed" {
			t.Fatalf("expected ping error, got %q", resp.Error)
		}
	})
}
