package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appintegration "github.com/stocklink/backend/internal/application/integration"
	"github.com/stocklink/backend/internal/domain/integration"
)

// MappingManager is the mapping surface the handler consumes
type MappingManager interface {
	CreateMapping(ctx context.Context, connectionID uuid.UUID, req appintegration.CreateMappingRequest) (*integration.ProductMapping, error)
	ListMappings(ctx context.Context, connectionID uuid.UUID) ([]integration.ProductMapping, error)
	GetMapping(ctx context.Context, id uuid.UUID) (*integration.ProductMapping, error)
	DeleteMapping(ctx context.Context, id uuid.UUID) error
	AutoMatch(ctx context.Context, connectionID uuid.UUID) (*appintegration.AutoMatchResult, error)
}

// MappingHandler handles product mapping endpoints
type MappingHandler struct {
	BaseHandler
	service MappingManager
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(service MappingManager) *MappingHandler {
	return &MappingHandler{service: service}
}

// Create maps a local product to a remote product on a connection
func (h *MappingHandler) Create(c *gin.Context) {
	connID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	var req appintegration.CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mapping, err := h.service.CreateMapping(c.Request.Context(), connID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, appintegration.ToMappingResponse(mapping))
}

// List returns all mappings for a connection
func (h *MappingHandler) List(c *gin.Context) {
	connID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	mappings, err := h.service.ListMappings(c.Request.Context(), connID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]appintegration.MappingResponse, 0, len(mappings))
	for i := range mappings {
		out = append(out, appintegration.ToMappingResponse(&mappings[i]))
	}
	h.SuccessWithTotal(c, out, len(out))
}

// Get returns one mapping by id
func (h *MappingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("mappingId"))
	if err != nil {
		h.BadRequest(c, "invalid mapping id")
		return
	}

	mapping, err := h.service.GetMapping(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, appintegration.ToMappingResponse(mapping))
}

// Delete removes a mapping, leaving the products on both sides untouched
func (h *MappingHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("mappingId"))
	if err != nil {
		h.BadRequest(c, "invalid mapping id")
		return
	}

	if err := h.service.DeleteMapping(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AutoMatch pairs unmapped local products with remote ones by SKU
func (h *MappingHandler) AutoMatch(c *gin.Context) {
	connID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	result, err := h.service.AutoMatch(c.Request.Context(), connID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers mapping routes under connections
func (h *MappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	conns := rg.Group("/connections/:id")
	{
		conns.POST("/mappings", h.Create)
		conns.GET("/mappings", h.List)
		conns.GET("/mappings/:mappingId", h.Get)
		conns.DELETE("/mappings/:mappingId", h.Delete)
		conns.POST("/automatch", h.AutoMatch)
	}
}
