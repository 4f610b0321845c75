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
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocklink/backend/internal/domain/integration"
)

// Constants for the WooCommerce REST API
const (
	// maxWooResponseSize limits response bodies to prevent memory exhaustion
	maxWooResponseSize = 10 * 1024 * 1024 // 10MB max response
	// wooInventoryBatchMax is the cap on ids per batched read or write
	wooInventoryBatchMax = 100
	// wooProductsPageSize is the page size requested when listing products
	wooProductsPageSize = 50
	// wooVariationHandleSep joins parent and variation ids into one
	// addressable handle ("{productID}:{variationID}")
	wooVariationHandleSep = ":"
)

// WooCommerceAdapter implements the ShopPlatform interface for WooCommerce
// stores
type WooCommerceAdapter struct {
	config     *WooCommerceConfig
	httpClient *http.Client
}

// NewWooCommerceAdapter creates a new WooCommerce adapter with the given
// configuration
func NewWooCommerceAdapter(config *WooCommerceConfig) (*WooCommerceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WooCommerceAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *WooCommerceAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeWooCommerce
}

// InventoryBatchSize returns the per-call cap on inventory reads
func (a *WooCommerceAdapter) InventoryBatchSize() int {
	return wooInventoryBatchMax
}

// RefreshToken is a no-op: WooCommerce uses static consumer key/secret pairs
func (a *WooCommerceAdapter) RefreshToken(_ context.Context) error {
	return nil
}

// ---------------------------------------------------------------------------
// Connection Test
// ---------------------------------------------------------------------------

// TestConnection verifies the key pair against the store. Failures become a
// structured result, never an error.
func (a *WooCommerceAdapter) TestConnection(ctx context.Context) *integration.TestResult {
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

// GetShopInfo reads the WordPress site index for display metadata and the
// general settings for the store currency. A missing currency is tolerated.
func (a *WooCommerceAdapter) GetShopInfo(ctx context.Context) (*integration.ShopInfo, error) {
	body, _, err := a.doRawRequest(ctx, http.MethodGet, a.config.SiteURL+"/wp-json", nil)
	if err != nil {
		return nil, err
	}

	var index WooSiteIndex
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to parse site index: %w", err)
	}

	info := &integration.ShopInfo{
		Name:   index.Name,
		Domain: index.URL,
	}

	// Currency lives in the general settings; auth problems there should
	// not fail the whole lookup.
	if settingsBody, _, err := a.doRequest(ctx, http.MethodGet, "/settings/general", nil, nil); err == nil {
		var settings []WooSetting
		if err := json.Unmarshal(settingsBody, &settings); err == nil {
			for _, setting := range settings {
				if setting.ID == "woocommerce_currency" {
					if currency, ok := setting.Value.(string); ok {
						info.Currency = currency
					}
					break
				}
			}
		}
	}
	return info, nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// FetchProducts returns one page of products. The cursor is the page number;
// total pages come from the X-WP-TotalPages response header. Variable
// products are expanded into one record per variation.
func (a *WooCommerceAdapter) FetchProducts(ctx context.Context, cursor string) (*integration.ProductPage, error) {
	page := 1
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("woocommerce: invalid cursor %q", cursor)
		}
		page = parsed
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(wooProductsPageSize))
	query.Set("status", "publish")

	body, header, err := a.doRequest(ctx, http.MethodGet, "/products", query, nil)
	if err != nil {
		return nil, err
	}

	var products []WooProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to parse products response: %w", err)
	}

	result := &integration.ProductPage{
		Products: make([]integration.RemoteProduct, 0, len(products)),
	}
	for _, product := range products {
		if product.Type == "variable" {
			variants, err := a.fetchVariations(ctx, product.ID, product.Name)
			if err != nil {
				return nil, err
			}
			result.Products = append(result.Products, variants...)
			continue
		}
		result.Products = append(result.Products, normalizeWooProduct(&product))
	}

	totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
	if page < totalPages {
		result.NextCursor = strconv.Itoa(page + 1)
		result.HasMore = true
	}
	return result, nil
}

// fetchVariations expands a variable product into per-variation records
func (a *WooCommerceAdapter) fetchVariations(ctx context.Context, productID int64, productName string) ([]integration.RemoteProduct, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(wooInventoryBatchMax))

	path := fmt.Sprintf("/products/%d/variations", productID)
	body, _, err := a.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var variations []WooVariation
	if err := json.Unmarshal(body, &variations); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to parse variations response: %w", err)
	}

	records := make([]integration.RemoteProduct, 0, len(variations))
	for _, variation := range variations {
		records = append(records, normalizeWooVariation(productID, productName, &variation))
	}
	return records, nil
}

// FindProductBySku looks a product up by the native SKU filter. Variations
// come back with type "variation" and a parent id.
func (a *WooCommerceAdapter) FindProductBySku(ctx context.Context, sku string) (*integration.RemoteProduct, error) {
	if sku == "" {
		return nil, integration.ErrRemoteProductNotFound
	}

	query := url.Values{}
	query.Set("sku", sku)

	body, _, err := a.doRequest(ctx, http.MethodGet, "/products", query, nil)
	if err != nil {
		return nil, err
	}

	var products []WooProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to parse products response: %w", err)
	}
	if len(products) == 0 {
		return nil, integration.ErrRemoteProductNotFound
	}

	record := normalizeWooProduct(&products[0])
	return &record, nil
}

// ---------------------------------------------------------------------------
// Inventory Operations
// ---------------------------------------------------------------------------

// FetchInventory reads quantities for a bounded batch of handles. Simple
// products are read with one ids-filtered listing call; variation handles
// are resolved individually. Items without stock management report no
// snapshot at all so they can never be mis-synced.
func (a *WooCommerceAdapter) FetchInventory(ctx context.Context, inventoryItemIDs []string) ([]integration.RemoteInventory, error) {
	if len(inventoryItemIDs) == 0 {
		return nil, nil
	}
	if len(inventoryItemIDs) > wooInventoryBatchMax {
		inventoryItemIDs = inventoryItemIDs[:wooInventoryBatchMax]
	}

	var simpleIDs []string
	var variationHandles []string
	for _, handle := range inventoryItemIDs {
		if strings.Contains(handle, wooVariationHandleSep) {
			variationHandles = append(variationHandles, handle)
		} else {
			simpleIDs = append(simpleIDs, handle)
		}
	}

	snapshots := make([]integration.RemoteInventory, 0, len(inventoryItemIDs))

	if len(simpleIDs) > 0 {
		query := url.Values{}
		query.Set("include", strings.Join(simpleIDs, ","))
		query.Set("per_page", strconv.Itoa(wooInventoryBatchMax))

		body, _, err := a.doRequest(ctx, http.MethodGet, "/products", query, nil)
		if err != nil {
			return nil, err
		}

		var products []WooProduct
		if err := json.Unmarshal(body, &products); err != nil {
			return nil, fmt.Errorf("woocommerce: failed to parse products response: %w", err)
		}
		for _, product := range products {
			if !bool(product.ManageStock) || product.StockQuantity == nil {
				continue
			}
			snapshots = append(snapshots, integration.RemoteInventory{
				ProductID:       strconv.FormatInt(product.ID, 10),
				InventoryItemID: strconv.FormatInt(product.ID, 10),
				Quantity:        decimal.NewFromInt(*product.StockQuantity),
			})
		}
	}

	for _, handle := range variationHandles {
		productID, variationID, err := splitWooVariationHandle(handle)
		if err != nil {
			return nil, err
		}

		path := fmt.Sprintf("/products/%d/variations/%d", productID, variationID)
		body, _, err := a.doRequest(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			return nil, err
		}

		var variation WooVariation
		if err := json.Unmarshal(body, &variation); err != nil {
			return nil, fmt.Errorf("woocommerce: failed to parse variation response: %w", err)
		}
		if !bool(variation.ManageStock) || variation.StockQuantity == nil {
			continue
		}
		snapshots = append(snapshots, integration.RemoteInventory{
			ProductID:       strconv.FormatInt(productID, 10),
			VariantID:       strconv.FormatInt(variationID, 10),
			InventoryItemID: handle,
			Quantity:        decimal.NewFromInt(*variation.StockQuantity),
		})
	}

	return snapshots, nil
}

// UpdateInventory writes absolute quantities. Simple products go through the
// native batch endpoint; variation writes are issued individually with a
// cooldown between calls. Items whose stock management is disabled are
// reported as failures, never written around.
func (a *WooCommerceAdapter) UpdateInventory(ctx context.Context, updates []integration.InventoryUpdate) *integration.UpdateResult {
	result := &integration.UpdateResult{
		Succeeded: make([]string, 0, len(updates)),
		Failed:    make([]integration.UpdateFailure, 0),
	}

	var batch []WooStockUpdate
	var variationUpdates []integration.InventoryUpdate
	for _, update := range updates {
		if strings.Contains(update.InventoryItemID, wooVariationHandleSep) {
			variationUpdates = append(variationUpdates, update)
			continue
		}
		id, err := strconv.ParseInt(update.InventoryItemID, 10, 64)
		if err != nil {
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: update.InventoryItemID,
				Message:         "invalid product id",
			})
			continue
		}
		batch = append(batch, WooStockUpdate{ID: id, StockQuantity: update.Quantity.IntPart()})
	}

	for start := 0; start < len(batch); start += wooInventoryBatchMax {
		end := start + wooInventoryBatchMax
		if end > len(batch) {
			end = len(batch)
		}
		a.updateSimpleBatch(ctx, batch[start:end], result)
	}

	cooldown := time.Duration(a.config.WriteCooldownMillis) * time.Millisecond
	for i, update := range variationUpdates {
		a.updateVariation(ctx, update, result)
		if cooldown > 0 && i < len(variationUpdates)-1 {
			time.Sleep(cooldown)
		}
	}
	return result
}

// updateSimpleBatch issues one POST /products/batch call and folds per-item
// outcomes into the result
func (a *WooCommerceAdapter) updateSimpleBatch(ctx context.Context, batch []WooStockUpdate, result *integration.UpdateResult) {
	if len(batch) == 0 {
		return
	}

	body, _, err := a.doRequest(ctx, http.MethodPost, "/products/batch", nil, WooBatchRequest{Update: batch})
	if err != nil {
		for _, item := range batch {
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: strconv.FormatInt(item.ID, 10),
				Message:         err.Error(),
			})
		}
		return
	}

	var resp WooBatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		for _, item := range batch {
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: strconv.FormatInt(item.ID, 10),
				Message:         "unparseable batch response",
			})
		}
		return
	}

	for _, item := range resp.Update {
		handle := strconv.FormatInt(item.ID, 10)
		switch {
		case item.Error != nil:
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: handle,
				Message:         item.Error.Message,
			})
		case !bool(item.ManageStock):
			result.Failed = append(result.Failed, integration.UpdateFailure{
				InventoryItemID: handle,
				Message:         "stock management disabled",
			})
		default:
			result.Succeeded = append(result.Succeeded, handle)
		}
	}
}

// updateVariation issues one PUT against a variation
func (a *WooCommerceAdapter) updateVariation(ctx context.Context, update integration.InventoryUpdate, result *integration.UpdateResult) {
	productID, variationID, err := splitWooVariationHandle(update.InventoryItemID)
	if err != nil {
		result.Failed = append(result.Failed, integration.UpdateFailure{
			InventoryItemID: update.InventoryItemID,
			Message:         err.Error(),
		})
		return
	}

	path := fmt.Sprintf("/products/%d/variations/%d", productID, variationID)
	payload := map[string]int64{"stock_quantity": update.Quantity.IntPart()}

	body, _, err := a.doRequest(ctx, http.MethodPut, path, nil, payload)
	if err != nil {
		result.Failed = append(result.Failed, integration.UpdateFailure{
			InventoryItemID: update.InventoryItemID,
			Message:         err.Error(),
		})
		return
	}

	var variation WooVariation
	if err := json.Unmarshal(body, &variation); err == nil && !bool(variation.ManageStock) {
		result.Failed = append(result.Failed, integration.UpdateFailure{
			InventoryItemID: update.InventoryItemID,
			Message:         "stock management disabled",
		})
		return
	}
	result.Succeeded = append(result.Succeeded, update.InventoryItemID)
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs a basic-auth request against the versioned REST base path
func (a *WooCommerceAdapter) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, http.Header, error) {
	endpoint := a.config.BasePath() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return a.doRawRequest(ctx, method, endpoint, payload)
}

// doRawRequest performs a request against an absolute URL
func (a *WooCommerceAdapter) doRawRequest(ctx context.Context, method, endpoint string, payload any) ([]byte, http.Header, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("woocommerce: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWooResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil, integration.NewPlatformError(integration.PlatformCodeWooCommerce, "authentication failed", resp.StatusCode, wooErrorDetail(body))
	}
	if resp.StatusCode >= 400 {
		return nil, nil, integration.NewPlatformError(integration.PlatformCodeWooCommerce, "request failed", resp.StatusCode, wooErrorDetail(body))
	}
	return body, resp.Header, nil
}

// normalizeWooProduct converts a listed product into the common record shape
func normalizeWooProduct(product *WooProduct) integration.RemoteProduct {
	price, err := decimal.NewFromString(product.Price)
	if err != nil {
		price = decimal.Zero
	}

	quantity := decimal.Zero
	if product.StockQuantity != nil {
		quantity = decimal.NewFromInt(*product.StockQuantity)
	}

	record := integration.RemoteProduct{
		ProductID:       strconv.FormatInt(product.ID, 10),
		InventoryItemID: strconv.FormatInt(product.ID, 10),
		SKU:             product.SKU,
		Title:           product.Name,
		Price:           price,
		Quantity:        quantity,
		Tracked:         bool(product.ManageStock),
	}

	// SKU lookups can return a variation with its parent id set
	if product.Type == "variation" && product.ParentID > 0 {
		record.ProductID = strconv.FormatInt(product.ParentID, 10)
		record.VariantID = strconv.FormatInt(product.ID, 10)
		record.InventoryItemID = joinWooVariationHandle(product.ParentID, product.ID)
	}
	return record
}

// normalizeWooVariation converts a variation into the common record shape
func normalizeWooVariation(productID int64, productName string, variation *WooVariation) integration.RemoteProduct {
	price, err := decimal.NewFromString(variation.Price)
	if err != nil {
		price = decimal.Zero
	}

	quantity := decimal.Zero
	if variation.StockQuantity != nil {
		quantity = decimal.NewFromInt(*variation.StockQuantity)
	}

	title := productName
	if len(variation.Attributes) > 0 {
		options := make([]string, 0, len(variation.Attributes))
		for _, attr := range variation.Attributes {
			options = append(options, attr.Option)
		}
		title = productName + " - " + strings.Join(options, "/")
	}

	return integration.RemoteProduct{
		ProductID:       strconv.FormatInt(productID, 10),
		VariantID:       strconv.FormatInt(variation.ID, 10),
		InventoryItemID: joinWooVariationHandle(productID, variation.ID),
		SKU:             variation.SKU,
		Title:           title,
		Price:           price,
		Quantity:        quantity,
		Tracked:         bool(variation.ManageStock),
	}
}

// joinWooVariationHandle builds the addressable handle for a variation
func joinWooVariationHandle(productID, variationID int64) string {
	return strconv.FormatInt(productID, 10) + wooVariationHandleSep + strconv.FormatInt(variationID, 10)
}

// splitWooVariationHandle parses a "{productID}:{variationID}" handle
func splitWooVariationHandle(handle string) (productID, variationID int64, err error) {
	parts := strings.SplitN(handle, wooVariationHandleSep, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("woocommerce: invalid variation handle %q", handle)
	}
	productID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("woocommerce: invalid variation handle %q", handle)
	}
	variationID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("woocommerce: invalid variation handle %q", handle)
	}
	return productID, variationID, nil
}

// wooErrorDetail flattens the platform's error payload into a string
func wooErrorDetail(body []byte) string {
	var wooErr WooError
	if err := json.Unmarshal(body, &wooErr); err != nil || wooErr.Message == "" {
		return string(body)
	}
	return fmt.Sprintf("%s: %s", wooErr.Code, wooErr.Message)
}

// Ensure WooCommerceAdapter implements the ShopPlatform interface
var _ integration.ShopPlatform = (*WooCommerceAdapter)(nil)
