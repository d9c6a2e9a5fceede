package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MacJediWizard/console/internal/propsync"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type mockSyncService struct {
	stats     propsync.Stats
	syncErr   error
	status    propsync.Status
	statusErr error
	last      *propsync.Run
	ctxErr    error
	full      propsync.FullStats
	called    []string
}

func (m *mockSyncService) SyncNotionToDatabase(ctx context.Context) (propsync.Stats, error) {
	m.called = append(m.called, "to_database")
	m.ctxErr = ctx.Err()
	return m.stats, m.syncErr
}

func (m *mockSyncService) SyncDatabaseToNotion(ctx context.Context) (propsync.Stats, error) {
	m.called = append(m.called, "to_notion")
	m.ctxErr = ctx.Err()
	return m.stats, m.syncErr
}

func (m *mockSyncService) FullSync(ctx context.Context) (propsync.FullStats, error) {
	m.called = append(m.called, "full")
	m.ctxErr = ctx.Err()
	return m.full, m.syncErr
}

func (m *mockSyncService) Status(context.Context) (propsync.Status, error) {
	return m.status, m.statusErr
}

func (m *mockSyncService) LastRun() *propsync.Run {
	return m.last
}

func setupSyncTestRouter(svc SyncService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewSyncHandler(svc, zerolog.Nop()).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestSyncStatus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockSyncService{status: propsync.Status{
			DatabaseTotal:      12,
			NotionTotal:        10,
			SyncedProperties:   9,
			UnsyncedProperties: 3,
			LastCheck:          time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		}}
		r := setupSyncTestRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/sync/status", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp struct {
			Success bool            `json:"success"`
			Data    propsync.Status `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if !resp.Success || resp.Data.DatabaseTotal != 12 || resp.Data.UnsyncedProperties != 3 {
			t.Fatalf("unexpected response: %s", w.Body.String())
		}
	})

	t.Run("error", func(t *testing.T) {
		r := setupSyncTestRouter(&mockSyncService{statusErr: errors.New("notion unreachable")})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/sync/status", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
	})
}

func TestSyncRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockSyncService{stats: propsync.Stats{Created: 2, Updated: 5, Errors: 1}}
		r := setupSyncTestRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sync", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if w.Body.String() != `{"data":{"created":2,"updated":5,"errors":1},"success":true}` {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
		if svc.ctxErr != nil {
			t.Fatalf("expected live context, got %v", svc.ctxErr)
		}
		if len(svc.called) != 1 || svc.called[0] != "to_database" {
			t.Fatalf("expected default direction to_database, got %v", svc.called)
		}
	})

	t.Run("to notion", func(t *testing.T) {
		svc := &mockSyncService{stats: propsync.Stats{Created: 3}}
		r := setupSyncTestRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sync?direction=to_notion", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if len(svc.called) != 1 || svc.called[0] != "to_notion" {
			t.Fatalf("expected to_notion, got %v", svc.called)
		}
		if w.Body.String() != `{"data":{"created":3,"updated":0,"errors":0},"success":true}` {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("full", func(t *testing.T) {
		svc := &mockSyncService{full: propsync.FullStats{
			ToDatabase: propsync.Stats{Updated: 4},
			ToNotion:   propsync.Stats{Created: 1},
		}}
		r := setupSyncTestRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sync?direction=full", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp struct {
			Data propsync.FullStats `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp.Data.ToDatabase.Updated != 4 || resp.Data.ToNotion.Created != 1 {
			t.Fatalf("unexpected stats: %+v", resp.Data)
		}
	})

	t.Run("invalid direction", func(t *testing.T) {
		svc := &mockSyncService{}
		r := setupSyncTestRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sync?direction=sideways", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
		if w.Body.String() != `{"error":"Invalid direction","success":false}` {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
		if len(svc.called) != 0 {
			t.Fatalf("expected no sync, got %v", svc.called)
		}
	})

	t.Run("in progress", func(t *testing.T) {
		r := setupSyncTestRouter(&mockSyncService{syncErr: propsync.ErrSyncInProgress})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sync", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", w.Code)
		}
	})

	t.Run("failure", func(t *testing.T) {
		r := setupSyncTestRouter(&mockSyncService{syncErr: errors.New("list notion pages: 401")})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/sync", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", w.Code)
		}
		if w.Body.String() != `{"error":"Sync failed","success":false}` {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestSyncLast(t *testing.T) {
	t.Run("no runs", func(t *testing.T) {
		r := setupSyncTestRouter(&mockSyncService{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/sync/last", nil)
		r.ServeHTTP(w, req)

		if w.Body.String() != `{"data":null,"success":true}` {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("with run", func(t *testing.T) {
		run := &propsync.Run{Stats: propsync.Stats{Created: 1}, Error: "partial"}
		r := setupSyncTestRouter(&mockSyncService{last: run})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/sync/last", nil)
		r.ServeHTTP(w, req)

		var resp struct {
			Data propsync.Run `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if resp.Data.Stats.Created != 1 || resp.Data.Error != "partial" {
			t.Fatalf("unexpected run: %+v", resp.Data)
		}
	})
}
