package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MacJediWizard/console/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newSessionStore(t *testing.T) *auth.SessionStore {
	t.Helper()
	store, err := auth.NewSessionStore(
		auth.DefaultSessionConfig([]byte("test-secret-that-is-at-least-32-bytes-long"), false),
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	return store
}

func newGatedRouter(sessions *auth.SessionStore) *gin.Engine {
	r := gin.New()
	gated := r.Group("/", AuthMiddleware(sessions, zerolog.Nop()))
	gated.GET("/api/v1/properties", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUser(c).Username})
	})
	gated.GET("/properties", func(c *gin.Context) {
		c.String(http.StatusOK, "page")
	})
	return r
}

func TestAuthMiddleware_RejectsAPIRequest(t *testing.T) {
	r := newGatedRouter(newSessionStore(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/properties", nil)
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["success"] != false || body["error"] != "Authentication required" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAuthMiddleware_RedirectsBrowser(t *testing.T) {
	r := newGatedRouter(newSessionStore(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/properties?page=2", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/login?next=%2Fproperties%3Fpage%3D2" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestAuthMiddleware_AdmitsSession(t *testing.T) {
	sessions := newSessionStore(t)
	r := newGatedRouter(sessions)

	login := httptest.NewRecorder()
	if err := sessions.SetUser(httptest.NewRequest("POST", "/auth/login", nil), login, &auth.SessionUser{
		ID:       uuid.New(),
		Username: "admin",
	}); err != nil {
		t.Fatalf("failed to set user: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/properties", nil)
	for _, cookie := range login.Result().Cookies() {
		req.AddCookie(cookie)
	}
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != `{"user":"admin"}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}
