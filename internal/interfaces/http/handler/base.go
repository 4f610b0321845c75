package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stocklink/backend/internal/domain/catalog"
	"github.com/stocklink/backend/internal/domain/integration"
	"github.com/stocklink/backend/internal/infrastructure/ecommerce"
	"github.com/stocklink/backend/internal/interfaces/http/dto"
	"github.com/stocklink/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// parseIDParam parses the :id path parameter as a UUID
func parseIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithTotal sends a 200 response with a total count
func (h *BaseHandler) SuccessWithTotal(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var code string
	switch {
	case errors.Is(err, integration.ErrConnectionNotFound),
		errors.Is(err, integration.ErrMappingNotFound),
		errors.Is(err, integration.ErrRemoteProductNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		code = dto.ErrCodeNotFound

	case errors.Is(err, integration.ErrMappingAlreadyExists):
		code = dto.ErrCodeAlreadyExists

	case errors.Is(err, integration.ErrSyncBusy):
		code = dto.ErrCodeSyncBusy

	case errors.Is(err, integration.ErrSyncDisabled):
		code = dto.ErrCodeSyncDisabled

	case errors.Is(err, integration.ErrConnectionInactive):
		code = dto.ErrCodeConnectionInactive

	case errors.Is(err, ecommerce.ErrOAuthNoPendingFlow),
		errors.Is(err, ecommerce.ErrOAuthStateMismatch),
		errors.Is(err, ecommerce.ErrOAuthFlowExpired):
		code = dto.ErrCodeOAuthState

	case errors.Is(err, integration.ErrPlatformNotSupported),
		errors.Is(err, integration.ErrConnectionInvalidURL),
		errors.Is(err, integration.ErrConnectionNoCredentials),
		errors.Is(err, integration.ErrMappingInvalidInput):
		code = dto.ErrCodeInvalidInput

	default:
		var platformErr *integration.PlatformError
		if errors.As(err, &platformErr) {
			h.Error(c, http.StatusBadGateway, dto.ErrCodePlatform, platformErr.Error())
			return
		}
		h.InternalError(c, "An unexpected error occurred")
		return
	}

	h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
}
