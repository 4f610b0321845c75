package ecommerce

import (
	"bytes"
	"encoding/json"
)

// Wire types for the WooCommerce REST API. Field sets are limited to what
// the sync engine reads.

// WooManageStock handles WooCommerce's mixed-type manage_stock field: it is
// a bool on products but the string "parent" on variations whose stock is
// managed at the parent level.
type WooManageStock bool

// UnmarshalJSON accepts both the boolean and the "parent" string form
func (m *WooManageStock) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		// "parent" means the variation is not individually stock-managed
		*m = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*m = WooManageStock(b)
	return nil
}

// WooProduct is one product as listed by GET /products. Variations returned
// by the SKU filter carry Type "variation" and a ParentID.
type WooProduct struct {
	ID            int64          `json:"id"`
	ParentID      int64          `json:"parent_id"`
	Name          string         `json:"name"`
	SKU           string         `json:"sku"`
	Type          string         `json:"type"`
	Price         string         `json:"price"`
	ManageStock   WooManageStock `json:"manage_stock"`
	StockQuantity *int64         `json:"stock_quantity"`
	Variations    []int64        `json:"variations"`
}

// WooVariationAttribute is one option of a variation
type WooVariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// WooVariation is one variation of a variable product
type WooVariation struct {
	ID            int64                   `json:"id"`
	SKU           string                  `json:"sku"`
	Price         string                  `json:"price"`
	ManageStock   WooManageStock          `json:"manage_stock"`
	StockQuantity *int64                  `json:"stock_quantity"`
	Attributes    []WooVariationAttribute `json:"attributes"`
}

// WooStockUpdate is one entry of a batch stock write
type WooStockUpdate struct {
	ID            int64 `json:"id"`
	StockQuantity int64 `json:"stock_quantity"`
}

// WooBatchRequest wraps POST /products/batch
type WooBatchRequest struct {
	Update []WooStockUpdate `json:"update"`
}

// WooBatchResponse carries the per-item results of a batch write. Items that
// failed come back with an embedded error object instead of product fields.
type WooBatchResponse struct {
	Update []WooBatchResult `json:"update"`
}

// WooBatchResult is one item of a batch response
type WooBatchResult struct {
	ID            int64          `json:"id"`
	ManageStock   WooManageStock `json:"manage_stock"`
	StockQuantity *int64         `json:"stock_quantity"`
	Error         *WooError      `json:"error"`
}

// WooError is the platform's error payload
type WooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

// WooSiteIndex is the WordPress REST index at /wp-json, used for shop display
// metadata
type WooSiteIndex struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// WooSetting is one entry of GET /settings/general
type WooSetting struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}
