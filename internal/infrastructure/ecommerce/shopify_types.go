package ecommerce

// Wire types for the Shopify Admin REST API. Field sets are limited to what
// the sync engine reads.

// ShopifyProduct is one product with its variants
type ShopifyProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	Status   string           `json:"status"`
	Variants []ShopifyVariant `json:"variants"`
}

// ShopifyVariant is one sellable variant of a product
type ShopifyVariant struct {
	ID                  int64  `json:"id"`
	ProductID           int64  `json:"product_id"`
	Title               string `json:"title"`
	SKU                 string `json:"sku"`
	Price               string `json:"price"`
	InventoryItemID     int64  `json:"inventory_item_id"`
	InventoryQuantity   int64  `json:"inventory_quantity"`
	InventoryManagement string `json:"inventory_management"`
}

// ShopifyProductsResponse wraps GET /products.json
type ShopifyProductsResponse struct {
	Products []ShopifyProduct `json:"products"`
}

// ShopifyShop carries store metadata
type ShopifyShop struct {
	Name            string `json:"name"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
	Currency        string `json:"currency"`
}

// ShopifyShopResponse wraps GET /shop.json
type ShopifyShopResponse struct {
	Shop ShopifyShop `json:"shop"`
}

// ShopifyLocation is one inventory location
type ShopifyLocation struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ShopifyLocationsResponse wraps GET /locations.json
type ShopifyLocationsResponse struct {
	Locations []ShopifyLocation `json:"locations"`
}

// ShopifyInventoryLevel is the stock of one inventory item at one location
type ShopifyInventoryLevel struct {
	InventoryItemID int64  `json:"inventory_item_id"`
	LocationID      int64  `json:"location_id"`
	Available       *int64 `json:"available"`
}

// ShopifyInventoryLevelsResponse wraps GET /inventory_levels.json
type ShopifyInventoryLevelsResponse struct {
	InventoryLevels []ShopifyInventoryLevel `json:"inventory_levels"`
}

// ShopifyInventorySetRequest is the body of POST /inventory_levels/set.json
type ShopifyInventorySetRequest struct {
	LocationID      int64 `json:"location_id"`
	InventoryItemID int64 `json:"inventory_item_id"`
	Available       int64 `json:"available"`
}

// ShopifyInventorySetResponse wraps the set call's result
type ShopifyInventorySetResponse struct {
	InventoryLevel ShopifyInventoryLevel `json:"inventory_level"`
}

// ShopifyErrorResponse is the platform's error envelope. The errors field is
// a string for some endpoints and an object for others.
type ShopifyErrorResponse struct {
	Errors any `json:"errors"`
}

// ShopifyAccessTokenResponse wraps POST /admin/oauth/access_token
type ShopifyAccessTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}
