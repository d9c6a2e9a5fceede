package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/MacJediWizard/console/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DefaultPropertiesLimit is used when the request carries no limit.
const DefaultPropertiesLimit = 100

// TableQuerier runs projected, ordered, limited table reads.
type TableQuerier interface {
	QueryTable(ctx context.Context, q db.TableQuery) ([]json.RawMessage, error)
}

// PropertiesHandler serves property rows from the database.
type PropertiesHandler struct {
	store  TableQuerier
	logger zerolog.Logger
}

// NewPropertiesHandler creates a new PropertiesHandler. store may be nil when
// no database is configured.
func NewPropertiesHandler(store TableQuerier, logger zerolog.Logger) *PropertiesHandler {
	return &PropertiesHandler{
		store:  store,
		logger: logger.With().Str("component", "properties_handler").Logger(),
	}
}

// RegisterRoutes registers property routes on the given router group.
func (h *PropertiesHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/properties", h.List)
}

// List returns property rows ordered by the requested column.
// An unavailable database yields an empty list.
// GET /api/v1/properties?limit=100&order=updated_at&dir=desc
func (h *PropertiesHandler) List(c *gin.Context) {
	q, err := parsePropertiesQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if h.store == nil {
		h.logger.Warn().Msg("database not configured, returning empty property list")
		c.JSON(http.StatusOK, gin.H{"success": true, "data": []json.RawMessage{}})
		return
	}

	rows, err := h.store.QueryTable(c.Request.Context(), q)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to query properties, returning empty list")
		rows = nil
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}

type propertiesQueryError string

func (e propertiesQueryError) Error() string { return string(e) }

func parsePropertiesQuery(c *gin.Context) (db.TableQuery, error) {
	q := db.TableQuery{
		Table:      db.PropertiesTable,
		Columns:    db.PropertyColumns,
		OrderBy:    "updated_at",
		Descending: true,
		Limit:      DefaultPropertiesLimit,
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > db.MaxTableLimit {
			return q, propertiesQueryError("Invalid limit")
		}
		q.Limit = n
	}

	if order := strings.TrimSpace(c.Query("order")); order != "" {
		if !slices.Contains(db.PropertyColumns, order) {
			return q, propertiesQueryError("Invalid order")
		}
		q.OrderBy = order
	}

	switch strings.ToLower(c.DefaultQuery("dir", "desc")) {
	case "desc":
		q.Descending = true
	case "asc":
		q.Descending = false
	default:
		return q, propertiesQueryError("Invalid dir")
	}

	return q, nil
}
