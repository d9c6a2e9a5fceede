package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MacJediWizard/console/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(username, password string) (*auth.SessionUser, error)
}

// AuthHandler handles authentication-related HTTP endpoints.
type AuthHandler struct {
	authn    Authenticator
	sessions *auth.SessionStore
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authn Authenticator, sessions *auth.SessionStore, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authn:    authn,
		sessions: sessions,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterRoutes registers auth routes on the given router group.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/me", h.Me)
}

// LoginRequest is accepted as JSON or as a form post.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	// Next is where form logins are redirected on success.
	Next string `json:"next,omitempty" form:"next"`
}

// Login checks credentials and starts a session.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password are required"})
		return
	}

	user, err := h.authn.Authenticate(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error().Err(err).Msg("authentication failed")
		}
		h.logger.Info().Str("username", req.Username).Str("client_ip", c.ClientIP()).Msg("login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid username or password"})
		return
	}

	if err := h.sessions.SetUser(c.Request, c.Writer, user); err != nil {
		h.logger.Error().Err(err).Msg("failed to save session")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Login failed"})
		return
	}

	h.logger.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user logged in")

	if c.ContentType() != gin.MIMEJSON {
		c.Redirect(http.StatusSeeOther, safeRedirect(req.Next))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// Logout clears the session.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if user, err := h.sessions.GetUser(c.Request); err == nil {
		h.logger.Info().Str("user_id", user.ID.String()).Msg("user logging out")
	}

	if err := h.sessions.ClearUser(c.Request, c.Writer); err != nil {
		h.logger.Error().Err(err).Msg("failed to clear session")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the session user.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.sessions.GetUser(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// safeRedirect only follows same-origin absolute paths.
func safeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
