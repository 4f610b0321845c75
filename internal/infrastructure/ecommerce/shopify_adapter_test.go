package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklink/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestShopifyConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *ShopifyConfig
		wantErr error
	}{
		{
			name: "valid config",
			config: &ShopifyConfig{
				ShopURL:     "https://acme.myshopify.com",
				AccessToken: "shpat_test",
			},
			wantErr: nil,
		},
		{
			name: "missing shop URL",
			config: &ShopifyConfig{
				AccessToken: "shpat_test",
			},
			wantErr: ErrShopifyConfigMissingShopURL,
		},
		{
			name: "missing access token",
			config: &ShopifyConfig{
				ShopURL: "https://acme.myshopify.com",
			},
			wantErr: ErrShopifyConfigMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				// Check defaults are set
				assert.Equal(t, ShopifyDefaultAPIVersion, tt.config.APIVersion)
				assert.True(t, tt.config.TimeoutSeconds > 0)
				assert.True(t, tt.config.RateLimitBuffer > 0)
			}
		})
	}
}

func TestShopifyConfig_Validate_TrimsTrailingSlash(t *testing.T) {
	config := &ShopifyConfig{
		ShopURL:     "https://acme.myshopify.com/",
		AccessToken: "shpat_test",
	}
	require.NoError(t, config.Validate())
	assert.Equal(t, "https://acme.myshopify.com", config.ShopURL)
	assert.Equal(t, "https://acme.myshopify.com/admin/api/"+ShopifyDefaultAPIVersion, config.BasePath())
}

func TestNewShopifyConfig(t *testing.T) {
	config := NewShopifyConfig("https://acme.myshopify.com/", "shpat_test")
	assert.Equal(t, "https://acme.myshopify.com", config.ShopURL)
	assert.Equal(t, "shpat_test", config.AccessToken)
	assert.Equal(t, ShopifyDefaultAPIVersion, config.APIVersion)
	assert.Equal(t, 500, config.WriteCooldownMillis)
	assert.Equal(t, 5, config.RateLimitBuffer)
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

func TestNewShopifyAdapter(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		adapter, err := NewShopifyAdapter(NewShopifyConfig("https://acme.myshopify.com", "shpat_test"))
		require.NoError(t, err)
		assert.NotNil(t, adapter)
		assert.Equal(t, integration.PlatformCodeShopify, adapter.PlatformCode())
		assert.Equal(t, 50, adapter.InventoryBatchSize())
	})

	t.Run("invalid config", func(t *testing.T) {
		adapter, err := NewShopifyAdapter(&ShopifyConfig{})
		assert.Error(t, err)
		assert.Nil(t, adapter)
	})
}

func TestShopifyAdapter_TestConnection(t *testing.T) {
	t.Run("successful test", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
			json.NewEncoder(w).Encode(ShopifyShopResponse{
				Shop: ShopifyShop{
					Name:     "Acme Store",
					Domain:   "shop.acme.com",
					Currency: "USD",
				},
			})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		result := adapter.TestConnection(context.Background())
		assert.True(t, result.OK)
		assert.Contains(t, result.Message, "Acme Store")
		require.NotNil(t, result.Shop)
		assert.Equal(t, "shop.acme.com", result.Shop.Domain)
		assert.Equal(t, "USD", result.Shop.Currency)
	})

	t.Run("authentication failure becomes result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ShopifyErrorResponse{Errors: "Invalid API key or access token"})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		result := adapter.TestConnection(context.Background())
		assert.False(t, result.OK)
		assert.Contains(t, result.Message, "authentication failed")
		assert.Nil(t, result.Shop)
	})

	t.Run("unreachable store becomes result", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://127.0.0.1:1")

		result := adapter.TestConnection(context.Background())
		assert.False(t, result.OK)
		assert.NotEmpty(t, result.Message)
	})
}

func TestShopifyAdapter_GetShopInfo_FallsBackToMyshopifyDomain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ShopifyShopResponse{
			Shop: ShopifyShop{
				Name:            "Acme Store",
				MyshopifyDomain: "acme.myshopify.com",
				Currency:        "EUR",
			},
		})
	}))
	defer server.Close()

	adapter := createTestShopifyAdapter(t, server.URL)

	info, err := adapter.GetShopInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme.myshopify.com", info.Domain)
}

// ---------------------------------------------------------------------------
// Product Listing Tests
// ---------------------------------------------------------------------------

func TestShopifyAdapter_FetchProducts(t *testing.T) {
	t.Run("expands variants and reports next cursor", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/api/"+ShopifyDefaultAPIVersion+"/products.json", r.URL.Path)
			assert.Equal(t, "50", r.URL.Query().Get("limit"))

			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/products.json?page_info=next_token&limit=50>; rel="next"`, server.URL))
			json.NewEncoder(w).Encode(ShopifyProductsResponse{
				Products: []ShopifyProduct{
					{
						ID:    1001,
						Title: "Trail Shoe",
						Variants: []ShopifyVariant{
							{ID: 2001, Title: "Size 42", SKU: "SHOE-42", Price: "89.90", InventoryItemID: 3001, InventoryQuantity: 12, InventoryManagement: "shopify"},
							{ID: 2002, Title: "Size 43", SKU: "SHOE-43", Price: "89.90", InventoryItemID: 3002, InventoryQuantity: 3, InventoryManagement: "shopify"},
						},
					},
					{
						ID:    1002,
						Title: "Gift Card",
						Variants: []ShopifyVariant{
							{ID: 2003, Title: "Default Title", SKU: "GIFT", Price: "25.00", InventoryItemID: 3003, InventoryManagement: ""},
						},
					},
				},
			})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		page, err := adapter.FetchProducts(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, page.Products, 3)
		assert.True(t, page.HasMore)
		assert.Equal(t, "next_token", page.NextCursor)

		first := page.Products[0]
		assert.Equal(t, "1001", first.ProductID)
		assert.Equal(t, "2001", first.VariantID)
		assert.Equal(t, "3001", first.InventoryItemID)
		assert.Equal(t, "SHOE-42", first.SKU)
		assert.Equal(t, "Trail Shoe - Size 42", first.Title)
		assert.True(t, first.Price.Equal(decimal.NewFromFloat(89.90)))
		assert.True(t, first.Quantity.Equal(decimal.NewFromInt(12)))
		assert.True(t, first.Tracked)

		// Single-variant products keep the bare product title
		giftCard := page.Products[2]
		assert.Equal(t, "Gift Card", giftCard.Title)
		assert.False(t, giftCard.Tracked)
	})

	t.Run("passes cursor as page_info", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "abc123", r.URL.Query().Get("page_info"))
			json.NewEncoder(w).Encode(ShopifyProductsResponse{})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		page, err := adapter.FetchProducts(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Empty(t, page.Products)
		assert.False(t, page.HasMore)
	})
}

func TestShopifyAdapter_FindProductBySku(t *testing.T) {
	t.Run("found on a later page", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page_info") == "" {
				w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/products.json?page_info=page2>; rel="next"`, server.URL))
				json.NewEncoder(w).Encode(ShopifyProductsResponse{
					Products: []ShopifyProduct{
						{ID: 1, Title: "Other", Variants: []ShopifyVariant{{ID: 10, SKU: "OTHER", Price: "1.00", InventoryItemID: 100}}},
					},
				})
				return
			}
			json.NewEncoder(w).Encode(ShopifyProductsResponse{
				Products: []ShopifyProduct{
					{ID: 2, Title: "Target", Variants: []ShopifyVariant{{ID: 20, SKU: "TARGET-SKU", Price: "5.00", InventoryItemID: 200, InventoryManagement: "shopify"}}},
				},
			})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		product, err := adapter.FindProductBySku(context.Background(), "target-sku")
		require.NoError(t, err)
		assert.Equal(t, "2", product.ProductID)
		assert.Equal(t, "200", product.InventoryItemID)
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopifyProductsResponse{})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		product, err := adapter.FindProductBySku(context.Background(), "MISSING")
		assert.ErrorIs(t, err, integration.ErrRemoteProductNotFound)
		assert.Nil(t, product)
	})

	t.Run("empty sku", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://unused.invalid")
		_, err := adapter.FindProductBySku(context.Background(), "")
		assert.ErrorIs(t, err, integration.ErrRemoteProductNotFound)
	})
}

// ---------------------------------------------------------------------------
// Inventory Tests
// ---------------------------------------------------------------------------

func TestShopifyAdapter_FetchInventory(t *testing.T) {
	t.Run("resolves location and skips unstocked items", func(t *testing.T) {
		available := int64(7)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/admin/api/" + ShopifyDefaultAPIVersion + "/locations.json":
				json.NewEncoder(w).Encode(ShopifyLocationsResponse{
					Locations: []ShopifyLocation{
						{ID: 1, Name: "Closed", Active: false},
						{ID: 55, Name: "Warehouse", Active: true},
					},
				})
			case "/admin/api/" + ShopifyDefaultAPIVersion + "/inventory_levels.json":
				assert.Equal(t, "55", r.URL.Query().Get("location_id"))
				assert.Equal(t, "3001,3002", r.URL.Query().Get("inventory_item_ids"))
				json.NewEncoder(w).Encode(ShopifyInventoryLevelsResponse{
					InventoryLevels: []ShopifyInventoryLevel{
						{InventoryItemID: 3001, LocationID: 55, Available: &available},
						{InventoryItemID: 3002, LocationID: 55, Available: nil},
					},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		snapshots, err := adapter.FetchInventory(context.Background(), []string{"3001", "3002"})
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, "3001", snapshots[0].InventoryItemID)
		assert.True(t, snapshots[0].Quantity.Equal(decimal.NewFromInt(7)))
	})

	t.Run("empty input", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://unused.invalid")
		snapshots, err := adapter.FetchInventory(context.Background(), nil)
		assert.NoError(t, err)
		assert.Empty(t, snapshots)
	})

	t.Run("no active location", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ShopifyLocationsResponse{
				Locations: []ShopifyLocation{{ID: 1, Active: false}},
			})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)

		_, err := adapter.FetchInventory(context.Background(), []string{"3001"})
		assert.ErrorIs(t, err, integration.ErrLocationNotResolved)
	})
}

func TestShopifyAdapter_UpdateInventory(t *testing.T) {
	t.Run("partial failure keeps per-item outcomes", func(t *testing.T) {
		var setCalls []ShopifyInventorySetRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/admin/api/"+ShopifyDefaultAPIVersion+"/inventory_levels/set.json" {
				var req ShopifyInventorySetRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				setCalls = append(setCalls, req)
				if req.InventoryItemID == 3002 {
					w.WriteHeader(http.StatusUnprocessableEntity)
					json.NewEncoder(w).Encode(ShopifyErrorResponse{Errors: "Inventory item does not have inventory tracking enabled"})
					return
				}
				json.NewEncoder(w).Encode(ShopifyInventorySetResponse{})
			}
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)
		adapter.config.LocationID = "55"
		adapter.locationID = "55"

		result := adapter.UpdateInventory(context.Background(), []integration.InventoryUpdate{
			{InventoryItemID: "3001", Quantity: decimal.NewFromInt(10)},
			{InventoryItemID: "3002", Quantity: decimal.NewFromInt(5)},
			{InventoryItemID: "not-a-number", Quantity: decimal.NewFromInt(1)},
		})

		assert.False(t, result.AllSucceeded())
		assert.Equal(t, []string{"3001"}, result.Succeeded)
		require.Len(t, result.Failed, 2)
		assert.Equal(t, "3002", result.Failed[0].InventoryItemID)
		assert.Contains(t, result.Failed[0].Message, "tracking")
		assert.Equal(t, "not-a-number", result.Failed[1].InventoryItemID)

		require.Len(t, setCalls, 2)
		assert.Equal(t, int64(55), setCalls[0].LocationID)
		assert.Equal(t, int64(10), setCalls[0].Available)
	})

	t.Run("location failure fails whole batch", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://127.0.0.1:1")

		result := adapter.UpdateInventory(context.Background(), []integration.InventoryUpdate{
			{InventoryItemID: "3001", Quantity: decimal.NewFromInt(10)},
		})
		assert.Empty(t, result.Succeeded)
		require.Len(t, result.Failed, 1)
	})
}

// ---------------------------------------------------------------------------
// Throttling Tests
// ---------------------------------------------------------------------------

func TestParseShopifyCallLimit(t *testing.T) {
	tests := []struct {
		input    string
		used     int
		total    int
		expectOK bool
	}{
		{"32/40", 32, 40, true},
		{" 39 / 40 ", 39, 40, true},
		{"40", 0, 0, false},
		{"a/b", 0, 0, false},
		{"1/0", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			used, total, ok := parseShopifyCallLimit(tt.input)
			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Equal(t, tt.used, used)
				assert.Equal(t, tt.total, total)
			}
		})
	}
}

func TestParseShopifyNextPageInfo(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "next link present",
			header:   `<https://acme.myshopify.com/admin/api/2024-01/products.json?page_info=def456&limit=50>; rel="next"`,
			expected: "def456",
		},
		{
			name:     "previous and next links",
			header:   `<https://x.com/products.json?page_info=prev1>; rel="previous", <https://x.com/products.json?page_info=next1>; rel="next"`,
			expected: "next1",
		},
		{
			name:     "only previous link",
			header:   `<https://x.com/products.json?page_info=prev1>; rel="previous"`,
			expected: "",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseShopifyNextPageInfo(tt.header))
		})
	}
}

func TestShopifyAdapter_RecordCallBudget(t *testing.T) {
	t.Run("low budget schedules a pause", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://unused.invalid")

		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
		resp.Header.Set("X-Shopify-Shop-Api-Call-Limit", "37/40")

		adapter.recordCallBudget(resp)
		assert.True(t, adapter.throttleUntil.After(time.Now()))
	})

	t.Run("healthy budget leaves throttle alone", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://unused.invalid")

		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
		resp.Header.Set("X-Shopify-Shop-Api-Call-Limit", "5/40")

		adapter.recordCallBudget(resp)
		assert.True(t, adapter.throttleUntil.IsZero())
	})

	t.Run("429 honors Retry-After", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://unused.invalid")

		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
		resp.Header.Set("Retry-After", "2.0")

		before := time.Now()
		adapter.recordCallBudget(resp)
		assert.True(t, adapter.throttleUntil.After(before.Add(1500*time.Millisecond)))
	})
}

// ---------------------------------------------------------------------------
// Token Refresh Tests
// ---------------------------------------------------------------------------

func TestShopifyAdapter_RefreshToken(t *testing.T) {
	t.Run("no-op without refresh token", func(t *testing.T) {
		adapter := createTestShopifyAdapter(t, "http://127.0.0.1:1")
		assert.NoError(t, adapter.RefreshToken(context.Background()))
	})

	t.Run("successful refresh updates config and fires callback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/oauth/access_token", r.URL.Path)
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "refresh_token", payload["grant_type"])
			assert.Equal(t, "old_refresh", payload["refresh_token"])

			json.NewEncoder(w).Encode(ShopifyAccessTokenResponse{
				AccessToken:  "new_access",
				RefreshToken: "new_refresh",
				ExpiresIn:    3600,
			})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)
		adapter.config.RefreshToken = "old_refresh"
		adapter.config.ClientID = "client"
		adapter.config.ClientSecret = "secret"

		var gotAccess, gotRefresh string
		adapter.SetTokenRefreshFunc(func(accessToken, refreshToken string, expiresAt time.Time) {
			gotAccess = accessToken
			gotRefresh = refreshToken
		})

		require.NoError(t, adapter.RefreshToken(context.Background()))
		assert.Equal(t, "new_access", adapter.config.AccessToken)
		assert.Equal(t, "new_refresh", adapter.config.RefreshToken)
		assert.Equal(t, "new_access", gotAccess)
		assert.Equal(t, "new_refresh", gotRefresh)
	})

	t.Run("rejected refresh", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		}))
		defer server.Close()

		adapter := createTestShopifyAdapter(t, server.URL)
		adapter.config.RefreshToken = "stale"

		err := adapter.RefreshToken(context.Background())
		require.Error(t, err)
		var platformErr *integration.PlatformError
		assert.ErrorAs(t, err, &platformErr)
	})
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

func createTestShopifyAdapter(t *testing.T, serverURL string) *ShopifyAdapter {
	config := &ShopifyConfig{
		ShopURL:             serverURL,
		AccessToken:         "shpat_test",
		TimeoutSeconds:      5,
		WriteCooldownMillis: 1, // keep tests fast
	}
	adapter, err := NewShopifyAdapter(config)
	require.NoError(t, err)
	return adapter
}
