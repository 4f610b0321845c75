package ecommerce

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklink/backend/internal/domain/integration"
)

// TokenPersistFunc receives renewed OAuth credentials for a connection so the
// caller can write them back to the connection record.
type TokenPersistFunc func(connectionID uuid.UUID, accessToken, refreshToken string, expiresAt time.Time)

// ConnectionAdapterFactory builds live platform adapters from persisted
// connection records. Adapters are cheap, stateless projections of the
// connection: a fresh one is built per use rather than cached.
type ConnectionAdapterFactory struct {
	onTokens TokenPersistFunc
}

// NewConnectionAdapterFactory creates an adapter factory. onTokens may be nil
// when nothing needs to observe token refreshes.
func NewConnectionAdapterFactory(onTokens TokenPersistFunc) *ConnectionAdapterFactory {
	return &ConnectionAdapterFactory{onTokens: onTokens}
}

// AdapterFor builds the adapter matching the connection's platform code
func (f *ConnectionAdapterFactory) AdapterFor(conn *integration.Connection) (integration.ShopPlatform, error) {
	switch conn.PlatformCode {
	case integration.PlatformCodeShopify:
		return f.shopifyAdapter(conn)
	case integration.PlatformCodeWooCommerce:
		return f.wooAdapter(conn)
	default:
		return nil, integration.ErrPlatformNotSupported
	}
}

func (f *ConnectionAdapterFactory) shopifyAdapter(conn *integration.Connection) (integration.ShopPlatform, error) {
	cfg := NewShopifyConfig(conn.ShopURL, conn.AccessToken)
	cfg.RefreshToken = conn.RefreshToken
	cfg.ClientID = conn.APIKey
	cfg.ClientSecret = conn.APISecret
	cfg.LocationID = conn.LocationID

	adapter, err := NewShopifyAdapter(cfg)
	if err != nil {
		return nil, err
	}

	if f.onTokens != nil {
		connID := conn.ID
		adapter.SetTokenRefreshFunc(func(accessToken, refreshToken string, expiresAt time.Time) {
			f.onTokens(connID, accessToken, refreshToken, expiresAt)
		})
	}

	return adapter, nil
}

func (f *ConnectionAdapterFactory) wooAdapter(conn *integration.Connection) (integration.ShopPlatform, error) {
	cfg := NewWooCommerceConfig(conn.ShopURL, conn.APIKey, conn.APISecret)
	return NewWooCommerceAdapter(cfg)
}
