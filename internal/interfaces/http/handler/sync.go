package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/stocklink/backend/internal/application/integration"
	"github.com/stocklink/backend/internal/domain/integration"
)

// SyncRunner is the sync surface the handler consumes
type SyncRunner interface {
	RunPass(ctx context.Context, connectionID uuid.UUID, trigger integration.SyncTrigger) (*appintegration.SyncSummary, error)
	SyncHistory(ctx context.Context, connectionID uuid.UUID, limit int) ([]integration.SyncLogEntry, error)
	Busy() bool
}

// SyncHandler handles sync trigger and history endpoints
type SyncHandler struct {
	BaseHandler
	service SyncRunner
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncRunner) *SyncHandler {
	return &SyncHandler{service: service}
}

// Run triggers a full sync pass for a connection. Returns 409 when another
// pass already holds the engine.
func (h *SyncHandler) Run(c *gin.Context) {
	connID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	summary, err := h.service.RunPass(c.Request.Context(), connID, integration.SyncTriggerManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Logs returns recent sync log entries for a connection, newest first
func (h *SyncHandler) Logs(c *gin.Context) {
	connID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.service.SyncHistory(c.Request.Context(), connID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := appintegration.ToSyncLogResponses(entries)
	h.SuccessWithTotal(c, out, len(out))
}

// Status reports whether a sync pass is currently running
func (h *SyncHandler) Status(c *gin.Context) {
	h.Success(c, gin.H{"busy": h.service.Busy()})
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	conns := rg.Group("/connections/:id")
	{
		conns.POST("/sync", h.Run)
		conns.GET("/logs", h.Logs)
	}
	rg.GET("/sync/status", h.Status)
}
