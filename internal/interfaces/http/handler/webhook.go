package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appintegration "github.com/stocklink/backend/internal/application/integration"
	"github.com/stocklink/backend/internal/domain/integration"
)

// WebhookProcessor is the webhook surface the handler consumes
type WebhookProcessor interface {
	HandleWebhookEvent(ctx context.Context, event appintegration.WebhookEvent) (*appintegration.WebhookResult, error)
}

// WebhookHandler ingests inventory notifications pushed by storefronts
type WebhookHandler struct {
	BaseHandler
	service    WebhookProcessor
	middleware []gin.HandlerFunc
}

// NewWebhookHandler creates a new WebhookHandler. Extra middleware, such as a
// rate limiter, runs on the ingestion route only.
func NewWebhookHandler(service WebhookProcessor, mw ...gin.HandlerFunc) *WebhookHandler {
	return &WebhookHandler{service: service, middleware: mw}
}

// webhookPayload is the normalized inbound body. Platforms that sign their
// deliveries carry the delivery id in a header; the body field is a fallback.
type webhookPayload struct {
	ConnectionID uuid.UUID        `json:"connection_id" binding:"required"`
	DeliveryID   string           `json:"delivery_id,omitempty"`
	RemoteID     string           `json:"remote_id,omitempty"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
}

// deliveryIDHeaders lists the per-platform delivery identifier headers
var deliveryIDHeaders = map[integration.PlatformCode]string{
	integration.PlatformCodeShopify:     "X-Shopify-Webhook-Id",
	integration.PlatformCodeWooCommerce: "X-WC-Webhook-Delivery-ID",
}

// Receive accepts one webhook delivery. The response is always 200 for
// deliveries the engine consciously declined (duplicate, unmapped, busy) so
// the platform does not retry them; only malformed requests are rejected.
func (h *WebhookHandler) Receive(c *gin.Context) {
	platform := integration.PlatformCode(strings.ToUpper(c.Param("platform")))
	if !platform.IsValid() {
		h.HandleError(c, integration.ErrPlatformNotSupported)
		return
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	event := appintegration.WebhookEvent{
		ConnectionID: payload.ConnectionID,
		DeliveryID:   payload.DeliveryID,
		RemoteID:     payload.RemoteID,
		Quantity:     payload.Quantity,
	}
	if header := deliveryIDHeaders[platform]; header != "" {
		if id := c.GetHeader(header); id != "" {
			event.DeliveryID = id
		}
	}

	result, err := h.service.HandleWebhookEvent(c.Request.Context(), event)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers the webhook ingestion route
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	handlers := append(append([]gin.HandlerFunc{}, h.middleware...), h.Receive)
	rg.POST("/webhooks/:platform", handlers...)
}
