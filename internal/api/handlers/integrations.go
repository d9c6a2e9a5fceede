// Package handlers provides HTTP handlers for the console API.
package handlers

import (
	"context"
	"net/http"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Integration is an external-API adapter exposed under /api/<name>.
type Integration interface {
	Name() string
	DisplayName() string
	Configured() bool
	Actions() []adapter.ActionInfo
	Handle(ctx context.Context, req adapter.Request) (int, adapter.Envelope)
}

// IntegrationInfo describes an integration for the service listing.
type IntegrationInfo struct {
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Configured  bool                 `json:"configured"`
	Actions     []adapter.ActionInfo `json:"actions"`
}

// IntegrationsHandler serves one proxy endpoint per integration.
type IntegrationsHandler struct {
	integrations []Integration
	logger       zerolog.Logger
}

// NewIntegrationsHandler creates a new IntegrationsHandler.
func NewIntegrationsHandler(integrations []Integration, logger zerolog.Logger) *IntegrationsHandler {
	return &IntegrationsHandler{
		integrations: integrations,
		logger:       logger.With().Str("component", "integrations_handler").Logger(),
	}
}

// RegisterRoutes registers GET /<name> for each integration and GET /integrations.
func (h *IntegrationsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/integrations", h.List)
	for _, integration := range h.integrations {
		r.GET("/"+integration.Name(), h.proxy(integration))
	}
}

// List returns the configured integrations and their actions.
// GET /api/integrations
func (h *IntegrationsHandler) List(c *gin.Context) {
	infos := make([]IntegrationInfo, 0, len(h.integrations))
	for _, integration := range h.integrations {
		infos = append(infos, IntegrationInfo{
			Name:        integration.Name(),
			DisplayName: integration.DisplayName(),
			Configured:  integration.Configured(),
			Actions:     integration.Actions(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": infos})
}

// proxy forwards ?action=... to the integration. The request context bounds
// the outbound call.
// GET /api/<name>?action=<action>&<param>=<value>
func (h *IntegrationsHandler) proxy(integration Integration) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := adapter.RequestFromQuery(c.Request.URL.Query())
		status, envelope := integration.Handle(c.Request.Context(), req)
		c.JSON(status, envelope)
	}
}
