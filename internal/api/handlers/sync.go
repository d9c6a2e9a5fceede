package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MacJediWizard/console/internal/api/middleware"
	"github.com/MacJediWizard/console/internal/propsync"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// syncTimeout bounds a sync triggered over HTTP. The run is detached from the
// request so a client disconnect does not leave it half done.
const syncTimeout = 10 * time.Minute

// SyncService runs and reports on the property sync between Notion and the
// database.
type SyncService interface {
	SyncNotionToDatabase(ctx context.Context) (propsync.Stats, error)
	SyncDatabaseToNotion(ctx context.Context) (propsync.Stats, error)
	FullSync(ctx context.Context) (propsync.FullStats, error)
	Status(ctx context.Context) (propsync.Status, error)
	LastRun() *propsync.Run
}

// SyncHandler handles property sync endpoints.
type SyncHandler struct {
	syncer SyncService
	logger zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncer SyncService, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		syncer: syncer,
		logger: logger.With().Str("component", "sync_handler").Logger(),
	}
}

// RegisterRoutes registers sync routes on the given router group.
func (h *SyncHandler) RegisterRoutes(r *gin.RouterGroup) {
	sync := r.Group("/sync")
	{
		sync.GET("/status", h.Status)
		sync.GET("/last", h.Last)
		sync.POST("", h.Run)
	}
}

// Status counts properties in Notion and the database.
// GET /api/v1/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.syncer.Status(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get sync status")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to get sync status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

// Last returns the most recent sync run, or null.
// GET /api/v1/sync/last
func (h *SyncHandler) Last(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.syncer.LastRun()})
}

// Run performs a sync and returns its counts. The direction query parameter
// selects to_database (default), to_notion or full.
// POST /api/v1/sync?direction=to_database
func (h *SyncHandler) Run(c *gin.Context) {
	direction := c.DefaultQuery("direction", string(propsync.DirectionToDatabase))

	var run func(context.Context) (any, error)
	switch direction {
	case string(propsync.DirectionToDatabase):
		run = func(ctx context.Context) (any, error) { return h.syncer.SyncNotionToDatabase(ctx) }
	case string(propsync.DirectionToNotion):
		run = func(ctx context.Context) (any, error) { return h.syncer.SyncDatabaseToNotion(ctx) }
	case "full":
		run = func(ctx context.Context) (any, error) { return h.syncer.FullSync(ctx) }
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid direction"})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), syncTimeout)
	defer cancel()

	result, err := run(ctx)
	if errors.Is(err, propsync.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Sync already in progress"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("direction", direction).Msg("sync failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Sync failed"})
		return
	}

	user := "anonymous"
	if u := middleware.GetUser(c); u != nil {
		user = u.Username
	}
	h.logger.Info().
		Str("user", user).
		Str("direction", direction).
		Interface("stats", result).
		Msg("manual sync completed")

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
