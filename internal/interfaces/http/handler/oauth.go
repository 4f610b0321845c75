package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stocklink/backend/internal/domain/integration"
	"github.com/stocklink/backend/internal/infrastructure/ecommerce"
)

// OAuthAuthorizer is the authorization flow surface the handler consumes
type OAuthAuthorizer interface {
	Begin(connectionID uuid.UUID, platform integration.PlatformCode) (string, error)
	Complete(ctx context.Context, state, code string) (uuid.UUID, integration.PlatformCode, *ecommerce.OAuthTokens, error)
}

// TokenPersister stores exchanged tokens on a connection
type TokenPersister interface {
	PersistTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt time.Time) error
}

// OAuthHandler handles the merchant authorization flow
type OAuthHandler struct {
	BaseHandler
	authorizer OAuthAuthorizer
	registry   TokenPersister
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(authorizer OAuthAuthorizer, registry TokenPersister) *OAuthHandler {
	return &OAuthHandler{authorizer: authorizer, registry: registry}
}

type beginOAuthRequest struct {
	ConnectionID uuid.UUID                `json:"connection_id" binding:"required"`
	Platform     integration.PlatformCode `json:"platform" binding:"required"`
}

type completeOAuthRequest struct {
	State string `json:"state" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// Begin starts an authorization flow and returns the URL the merchant
// must visit. Only one flow may be pending at a time; starting a new one
// discards the previous.
func (h *OAuthHandler) Begin(c *gin.Context) {
	var req beginOAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if !req.Platform.IsValid() {
		h.HandleError(c, integration.ErrPlatformNotSupported)
		return
	}

	authURL, err := h.authorizer.Begin(req.ConnectionID, req.Platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"authorization_url": authURL})
}

// Complete finishes the pending flow with the callback's state and code,
// exchanges the code for tokens and stores them on the connection.
func (h *OAuthHandler) Complete(c *gin.Context) {
	var req completeOAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	connID, platform, tokens, err := h.authorizer.Complete(c.Request.Context(), req.State, req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.registry.PersistTokens(c.Request.Context(), connID, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"connection_id": connID,
		"platform":      platform,
	})
}

// RegisterRoutes registers the authorization flow routes
func (h *OAuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	oauth := rg.Group("/oauth")
	{
		oauth.POST("/begin", h.Begin)
		oauth.POST("/complete", h.Complete)
	}
}
