package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/stocklink/backend/internal/application/integration"
	"github.com/stocklink/backend/internal/domain/integration"
)

// ConnectionService is the registry surface the handler consumes
type ConnectionService interface {
	CreateConnection(ctx context.Context, req appintegration.CreateConnectionRequest) (*integration.Connection, error)
	GetConnection(ctx context.Context, id uuid.UUID) (*integration.Connection, error)
	ListConnections(ctx context.Context) ([]integration.Connection, error)
	UpdateConnection(ctx context.Context, id uuid.UUID, req appintegration.UpdateConnectionRequest) (*integration.Connection, error)
	DeleteConnection(ctx context.Context, id uuid.UUID) error
	TestConnection(ctx context.Context, id uuid.UUID) (*appintegration.TestConnectionResponse, error)
}

// ConnectionHandler handles storefront connection endpoints
type ConnectionHandler struct {
	BaseHandler
	service ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(service ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// Create registers a new storefront connection
func (h *ConnectionHandler) Create(c *gin.Context) {
	var req appintegration.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	conn, err := h.service.CreateConnection(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, appintegration.ToConnectionResponse(conn))
}

// List returns all connections
func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.service.ListConnections(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]appintegration.ConnectionResponse, 0, len(conns))
	for i := range conns {
		out = append(out, appintegration.ToConnectionResponse(&conns[i]))
	}
	h.SuccessWithTotal(c, out, len(out))
}

// Get returns one connection
func (h *ConnectionHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	conn, err := h.service.GetConnection(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, appintegration.ToConnectionResponse(conn))
}

// Update applies a partial update to a connection
func (h *ConnectionHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	var req appintegration.UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	conn, err := h.service.UpdateConnection(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, appintegration.ToConnectionResponse(conn))
}

// Delete removes a connection with its mappings and sync history
func (h *ConnectionHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	if err := h.service.DeleteConnection(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Test verifies the connection's credentials against the live store
func (h *ConnectionHandler) Test(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	result, err := h.service.TestConnection(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers connection routes
func (h *ConnectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	conns := rg.Group("/connections")
	{
		conns.POST("", h.Create)
		conns.GET("", h.List)
		conns.GET("/:id", h.Get)
		conns.PATCH("/:id", h.Update)
		conns.DELETE("/:id", h.Delete)
		conns.POST("/:id/test", h.Test)
	}
}
