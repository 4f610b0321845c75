package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocklink/backend/internal/domain/integration"
)

// Constants for the Shopify Admin API
const (
	// maxShopifyResponseSize limits response bodies to prevent memory exhaustion
	maxShopifyResponseSize = 10 * 1024 * 1024 // 10MB max response
	// shopifyInventoryBatchMax is the documented cap on inventory_item_ids per call
	shopifyInventoryBatchMax = 50
	// shopifyProductsPageSize is the page size requested when listing products
	shopifyProductsPageSize = 50
	// shopifyThrottlePause is how long to pause when the call budget runs low
	shopifyThrottlePause = 1 * time.Second
)

// TokenRefreshFunc receives renewed OAuth credentials so the owning
// connection record can be updated. The adapter itself never persists tokens.
type TokenRefreshFunc func(accessToken, refreshToken string, expiresAt time.Time)

// ShopifyAdapter implements the ShopPlatform interface for Shopify stores
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client

	// locationID caches the lazily resolved primary location
	locationMu sync.Mutex
	locationID string

	// throttleUntil delays the next request when the call budget is low.
	// Sleeping here suspends only this adapter's call path.
	throttleMu    sync.Mutex
	throttleUntil time.Time

	onTokenRefresh TokenRefreshFunc
}

// NewShopifyAdapter creates a new Shopify adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		locationID: config.LocationID,
	}, nil
}

// SetTokenRefreshFunc registers the callback invoked after a successful
// token refresh
func (a *ShopifyAdapter) SetTokenRefreshFunc(fn TokenRefreshFunc) {
	a.onTokenRefresh = fn
}

// PlatformCode returns the platform code this adapter handles
func (a *ShopifyAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeShopify
}

// InventoryBatchSize returns the per-call cap on inventory reads
func (a *ShopifyAdapter) InventoryBatchSize() int {
	return shopifyInventoryBatchMax
}

// ---------------------------------------------------------------------------
// Connection Test
// ---------------------------------------------------------------------------

// TestConnection verifies the token against the store. Failures become a
// structured result, never an error.
func (a *ShopifyAdapter) TestConnection(ctx context.Context) *integration.TestResult {
	info, err := a.GetShopInfo(ctx)
	if err != nil {
		return &integration.TestResult{
			OK:      false,
			Message: err.Error(),
		}
	}
	return &integration.TestResult{
		OK:      true,
		Message: fmt.Sprintf("Connected to %s", info.Name),
		Shop:    info,
	}
}

// GetShopInfo returns store metadata for connection display
func (a *ShopifyAdapter) GetShopInfo(ctx context.Context) (*integration.ShopInfo, error) {
	body, _, err := a.doRequest(ctx, http.MethodGet, "/shop.json", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp ShopifyShopResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse shop response: %w", err)
	}

	domain := resp.Shop.Domain
	if domain == "" {
		domain = resp.Shop.MyshopifyDomain
	}
	return &integration.ShopInfo{
		Name:     resp.Shop.Name,
		Domain:   domain,
		Currency: resp.Shop.Currency,
	}, nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// FetchProducts returns one page of products, expanded to one record per
// variant. The cursor is Shopify's page_info token from the Link header.
func (a *ShopifyAdapter) FetchProducts(ctx context.Context, cursor string) (*integration.ProductPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(shopifyProductsPageSize))
	if cursor != "" {
		query.Set("page_info", cursor)
	}

	body, header, err := a.doRequest(ctx, http.MethodGet, "/products.json", query, nil)
	if err != nil {
		return nil, err
	}

	var resp ShopifyProductsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse products response: %w", err)
	}

	page := &integration.ProductPage{
		Products: make([]integration.RemoteProduct, 0, len(resp.Products)),
	}
	for _, product := range resp.Products {
		page.Products = append(page.Products, normalizeShopifyProduct(&product)...)
	}

	if next := parseShopifyNextPageInfo(header.Get("Link")); next != "" {
		page.NextCursor = next
		page.HasMore = true
	}
	return page, nil
}

// FindProductBySku scans product pages for a matching variant SKU. The Admin
// REST API has no SKU filter, so the listing is walked page by page.
func (a *ShopifyAdapter) FindProductBySku(ctx context.Context, sku string) (*integration.RemoteProduct, error) {
	if sku == "" {
		return nil, integration.ErrRemoteProductNotFound
	}

	cursor := ""
	for {
		page, err := a.FetchProducts(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for i := range page.Products {
			if strings.EqualFold(page.Products[i].SKU, sku) {
				return &page.Products[i], nil
			}
		}
		if !page.HasMore {
			return nil, integration.ErrRemoteProductNotFound
		}
		cursor = page.NextCursor
	}
}

// ---------------------------------------------------------------------------
// Inventory Operations
// ---------------------------------------------------------------------------

// FetchInventory reads quantities for up to 50 inventory item handles at the
// connection's location. Oversized input is truncated, not rejected.
func (a *ShopifyAdapter) FetchInventory(ctx context.Context, inventoryItemIDs []string) ([]integration.RemoteInventory, error) {
	if len(inventoryItemIDs) == 0 {
		return nil, nil
	}
	if len(inventoryItemIDs) > shopifyInventoryBatchMax {
		inventoryItemIDs = inventoryItemIDs[:shopifyInventoryBatchMax]
	}

	locationID, err := a.resolveLocation(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("inventory_item_ids", strings.Join(inventoryItemIDs, ","))
	query.Set("location_id", locationID)
	query.Set("limit", strconv.Itoa(shopifyInventoryBatchMax))

	body, _, err := a.doRequest(ctx, http.MethodGet, "/inventory_levels.json", query, nil)
	if err != nil {
		return nil, err
	}

	var resp ShopifyInventoryLevelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse inventory response: %w", err)
	}

	snapshots := make([]integration.RemoteInventory, 0, len(resp.InventoryLevels))
	for _, level := range resp.InventoryLevels {
		// A null available means the item is not stocked at this location
		if level.Available == nil {
			continue
		}
		snapshots = append(snapshots, integration.RemoteInventory{
			InventoryItemID: strconv.FormatInt(level.InventoryItemID, 10),
			Quantity:        decimal.NewFromInt(*level.Available),
		})
	}
	return snapshots, nil
}

// UpdateInventory sets absolute quantities one item at a time, pausing after
// each write to honor the per-second call budget. Per-item outcomes are
// collected; one bad handle never fails the batch.
func (a *ShopifyAdapter) UpdateInventory(ctx context.Context, updates []integration.InventoryUpdate) *integration.UpdateResult {
	result := &integration.UpdateResult{
		Succeeded: make([]string, 0, len(updates)),
		Failed:    make([]integration.UpdateFailure, 0),
	}

	locationID, err := a.resolveLocation(ctx)
	if err != nil {
		for _, update := range updates {
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: update.InventoryItemID,
				Message:         err.Error(),
			})
		}
		return result
	}
	locID, _ := strconv.ParseInt(locationID, 10, 64)

	cooldown := time.Duration(a.config.WriteCooldownMillis) * time.Millisecond
	for i, update := range updates {
		itemID, err := strconv.ParseInt(update.InventoryItemID, 10, 64)
		if err != nil {
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: update.InventoryItemID,
				Message:         "invalid inventory item id",
			})
			continue
		}

		req := ShopifyInventorySetRequest{
			LocationID:      locID,
			InventoryItemID: itemID,
			Available:       update.Quantity.IntPart(),
		}
		if _, _, err := a.doRequest(ctx, http.MethodPost, "/inventory_levels/set.json", nil, req); err != nil {
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: update.InventoryItemID,
				Message:         err.Error(),
			})
		} else {
			result.Succeeded = append(result.Succeeded, update.InventoryItemID)
		}

		if cooldown > 0 && i < len(updates)-1 {
			time.Sleep(cooldown)
		}
	}
	return result
}

// resolveLocation returns the configured location or lazily resolves the
// store's first active location once and caches it for the adapter lifetime
func (a *ShopifyAdapter) resolveLocation(ctx context.Context) (string, error) {
	a.locationMu.Lock()
	defer a.locationMu.Unlock()

	if a.locationID != "" {
		return a.locationID, nil
	}

	body, _, err := a.doRequest(ctx, http.MethodGet, "/locations.json", nil, nil)
	if err != nil {
		return "", err
	}

	var resp ShopifyLocationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("shopify: failed to parse locations response: %w", err)
	}

	for _, location := range resp.Locations {
		if location.Active {
			a.locationID = strconv.FormatInt(location.ID, 10)
			return a.locationID, nil
		}
	}
	return "", integration.ErrLocationNotResolved
}

// ---------------------------------------------------------------------------
// Token Refresh
// ---------------------------------------------------------------------------

// RefreshToken exchanges the stored refresh token for a new access token.
// Connections using a static Admin token have no refresh token and this is a
// no-op for them.
func (a *ShopifyAdapter) RefreshToken(ctx context.Context) error {
	if a.config.RefreshToken == "" {
		return nil
	}

	payload := map[string]string{
		"client_id":     a.config.ClientID,
		"client_secret": a.config.ClientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": a.config.RefreshToken,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("shopify: failed to marshal refresh request: %w", err)
	}

	endpoint := a.config.ShopURL + "/admin/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("shopify: failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopifyResponseSize))
	if err != nil {
		return fmt.Errorf("shopify: failed to read refresh response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return integration.NewPlatformError(integration.PlatformCodeShopify, "token refresh rejected", resp.StatusCode, string(body))
	}

	var tokens ShopifyAccessTokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return fmt.Errorf("shopify: failed to parse refresh response: %w", err)
	}
	if tokens.AccessToken == "" {
		return integration.ErrPlatformInvalidResponse
	}

	a.config.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		a.config.RefreshToken = tokens.RefreshToken
	}
	expiresAt := time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	if a.onTokenRefresh != nil {
		a.onTokenRefresh(tokens.AccessToken, tokens.RefreshToken, expiresAt)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an authenticated request against the versioned Admin API
// path, honoring the self-imposed throttle window and recording the call
// budget reported by the response.
func (a *ShopifyAdapter) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, http.Header, error) {
	a.waitForQuota()

	endpoint := a.config.BasePath() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("shopify: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopifyResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	a.recordCallBudget(resp)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil, integration.NewPlatformError(integration.PlatformCodeShopify, "authentication failed", resp.StatusCode, shopifyErrorDetail(body))
	}
	if resp.StatusCode >= 400 {
		return nil, nil, integration.NewPlatformError(integration.PlatformCodeShopify, "request failed", resp.StatusCode, shopifyErrorDetail(body))
	}
	return body, resp.Header, nil
}

// waitForQuota blocks until the self-imposed throttle window has passed.
// This suspends only the calling goroutine; an in-flight call is never
// cancelled by throttling.
func (a *ShopifyAdapter) waitForQuota() {
	a.throttleMu.Lock()
	wait := time.Until(a.throttleUntil)
	a.throttleMu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

// recordCallBudget reads X-Shopify-Shop-Api-Call-Limit ("used/total") and
// schedules a pause when the remaining budget drops below the buffer. A 429
// honors Retry-After the same way.
func (a *ShopifyAdapter) recordCallBudget(resp *http.Response) {
	pause := time.Duration(0)

	if resp.StatusCode == http.StatusTooManyRequests {
		pause = shopifyThrottlePause
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.ParseFloat(retryAfter, 64); err == nil && seconds > 0 {
				pause = time.Duration(seconds * float64(time.Second))
			}
		}
	} else if limit := resp.Header.Get("X-Shopify-Shop-Api-Call-Limit"); limit != "" {
		if used, total, ok := parseShopifyCallLimit(limit); ok && total-used < a.config.RateLimitBuffer {
			pause = shopifyThrottlePause
		}
	}

	if pause > 0 {
		a.throttleMu.Lock()
		until := time.Now().Add(pause)
		if until.After(a.throttleUntil) {
			a.throttleUntil = until
		}
		a.throttleMu.Unlock()
	}
}

// normalizeShopifyProduct expands a product into one record per variant
func normalizeShopifyProduct(product *ShopifyProduct) []integration.RemoteProduct {
	records := make([]integration.RemoteProduct, 0, len(product.Variants))
	for _, variant := range product.Variants {
		title := product.Title
		// "Default Title" is Shopify's placeholder for single-variant products
		if variant.Title != "" && variant.Title != "Default Title" {
			title = product.Title + " - " + variant.Title
		}

		price, err := decimal.NewFromString(variant.Price)
		if err != nil {
			price = decimal.Zero
		}

		records = append(records, integration.RemoteProduct{
			ProductID:       strconv.FormatInt(product.ID, 10),
			VariantID:       strconv.FormatInt(variant.ID, 10),
			InventoryItemID: strconv.FormatInt(variant.InventoryItemID, 10),
			SKU:             variant.SKU,
			Title:           title,
			Price:           price,
			Quantity:        decimal.NewFromInt(variant.InventoryQuantity),
			Tracked:         variant.InventoryManagement == "shopify",
		})
	}
	return records
}

// parseShopifyCallLimit parses "32/40" into used and total
func parseShopifyCallLimit(value string) (used, total int, ok bool) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	used, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	total, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || total == 0 {
		return 0, 0, false
	}
	return used, total, true
}

// parseShopifyNextPageInfo extracts the next page_info token from a Link
// header of the form <https://...page_info=abc>; rel="next"
func parseShopifyNextPageInfo(linkHeader string) string {
	for _, link := range strings.Split(linkHeader, ",") {
		if !strings.Contains(link, `rel="next"`) {
			continue
		}
		start := strings.Index(link, "<")
		end := strings.Index(link, ">")
		if start < 0 || end <= start {
			continue
		}
		parsed, err := url.Parse(link[start+1 : end])
		if err != nil {
			continue
		}
		return parsed.Query().Get("page_info")
	}
	return ""
}

// shopifyErrorDetail flattens the platform's error envelope into a string
func shopifyErrorDetail(body []byte) string {
	var errResp ShopifyErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Errors == nil {
		return string(body)
	}
	switch v := errResp.Errors.(type) {
	case string:
		return v
	default:
		detail, err := json.Marshal(v)
		if err != nil {
			return string(body)
		}
		return string(detail)
	}
}

// Ensure ShopifyAdapter implements the ShopPlatform interface
var _ integration.ShopPlatform = (*ShopifyAdapter)(nil)
