package ecommerce

import (
	"errors"
	"strings"
)

// ShopifyConfig holds configuration for the Shopify Admin REST integration
type ShopifyConfig struct {
	// ShopURL is the store base URL (e.g. https://acme.myshopify.com)
	ShopURL string
	// AccessToken is the Admin API access token
	AccessToken string
	// RefreshToken is the OAuth refresh token, empty for static tokens
	RefreshToken string
	// ClientID is the OAuth app client id, required only for token refresh
	ClientID string
	// ClientSecret is the OAuth app client secret
	ClientSecret string
	// APIVersion is the Admin API version segment
	APIVersion string
	// LocationID is the inventory location stock calls target. Empty means
	// the adapter resolves the primary location lazily and caches it.
	LocationID string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// WriteCooldownMillis is the pause after each inventory write. Shopify
	// enforces a strict per-second call budget on REST writes.
	WriteCooldownMillis int
	// RateLimitBuffer is the remaining-call threshold below which the
	// adapter proactively pauses before the next request
	RateLimitBuffer int
}

const (
	// ShopifyDefaultAPIVersion is the Admin API version this build targets
	ShopifyDefaultAPIVersion = "2024-01"
	// shopifyDefaultWriteCooldownMillis paces single-item inventory writes
	shopifyDefaultWriteCooldownMillis = 500
	// shopifyDefaultRateLimitBuffer is the call-budget safety margin
	shopifyDefaultRateLimitBuffer = 5
)

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingShopURL = errors.New("shopify: shop URL is required")
	ErrShopifyConfigMissingToken   = errors.New("shopify: access token is required")
)

// NewShopifyConfig creates a new Shopify configuration with defaults
func NewShopifyConfig(shopURL, accessToken string) *ShopifyConfig {
	return &ShopifyConfig{
		ShopURL:             strings.TrimRight(shopURL, "/"),
		AccessToken:         accessToken,
		APIVersion:          ShopifyDefaultAPIVersion,
		TimeoutSeconds:      30,
		WriteCooldownMillis: shopifyDefaultWriteCooldownMillis,
		RateLimitBuffer:     shopifyDefaultRateLimitBuffer,
	}
}

// Validate validates the Shopify configuration
func (c *ShopifyConfig) Validate() error {
	if strings.TrimSpace(c.ShopURL) == "" {
		return ErrShopifyConfigMissingShopURL
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingToken
	}
	c.ShopURL = strings.TrimRight(c.ShopURL, "/")
	if c.APIVersion == "" {
		c.APIVersion = ShopifyDefaultAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.WriteCooldownMillis < 0 {
		c.WriteCooldownMillis = shopifyDefaultWriteCooldownMillis
	}
	if c.RateLimitBuffer <= 0 {
		c.RateLimitBuffer = shopifyDefaultRateLimitBuffer
	}
	return nil
}

// BasePath returns the versioned Admin API base path
func (c *ShopifyConfig) BasePath() string {
	return c.ShopURL + "/admin/api/" + c.APIVersion
}
