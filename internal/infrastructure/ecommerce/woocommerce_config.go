package ecommerce

import (
	"errors"
	"strings"
)

// WooCommerceConfig holds configuration for the WooCommerce REST integration
type WooCommerceConfig struct {
	// SiteURL is the WordPress site base URL (e.g. https://shop.example.com)
	SiteURL string
	// ConsumerKey is the REST API consumer key
	ConsumerKey string
	// ConsumerSecret is the REST API consumer secret
	ConsumerSecret string
	// APIVersion is the WooCommerce REST namespace version
	APIVersion string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// WriteCooldownMillis is the pause between dependent write calls.
	// Shared hosts running WooCommerce throttle aggressively.
	WriteCooldownMillis int
}

const (
	// WooDefaultAPIVersion is the REST namespace this build targets
	WooDefaultAPIVersion = "wc/v3"
	// wooDefaultWriteCooldownMillis paces variant-level writes
	wooDefaultWriteCooldownMillis = 350
)

// Errors for WooCommerce configuration
var (
	ErrWooConfigMissingSiteURL        = errors.New("woocommerce: site URL is required")
	ErrWooConfigMissingConsumerKey    = errors.New("woocommerce: consumer key is required")
	ErrWooConfigMissingConsumerSecret = errors.New("woocommerce: consumer secret is required")
)

// NewWooCommerceConfig creates a new WooCommerce configuration with defaults
func NewWooCommerceConfig(siteURL, consumerKey, consumerSecret string) *WooCommerceConfig {
	return &WooCommerceConfig{
		SiteURL:             strings.TrimRight(siteURL, "/"),
		ConsumerKey:         consumerKey,
		ConsumerSecret:      consumerSecret,
		APIVersion:          WooDefaultAPIVersion,
		TimeoutSeconds:      30,
		WriteCooldownMillis: wooDefaultWriteCooldownMillis,
	}
}

// Validate validates the WooCommerce configuration
func (c *WooCommerceConfig) Validate() error {
	if strings.TrimSpace(c.SiteURL) == "" {
		return ErrWooConfigMissingSiteURL
	}
	if c.ConsumerKey == "" {
		return ErrWooConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrWooConfigMissingConsumerSecret
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	if c.APIVersion == "" {
		c.APIVersion = WooDefaultAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.WriteCooldownMillis < 0 {
		c.WriteCooldownMillis = wooDefaultWriteCooldownMillis
	}
	return nil
}

// BasePath returns the versioned REST base path under the site's namespace
func (c *WooCommerceConfig) BasePath() string {
	return c.SiteURL + "/wp-json/" + c.APIVersion
}
