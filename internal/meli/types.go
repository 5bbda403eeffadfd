package meli

// TokenResponse is returned by the OAuth token endpoint for both the
// authorization-code exchange and the refresh grant.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// UserInfo is the payload of GET /users/me, used as a connectivity probe.
type UserInfo struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	SiteID   string `json:"site_id"`
}

type Paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// OrderSearchResponse is one page of GET /orders/search.
type OrderSearchResponse struct {
	Results []Order `json:"results"`
	Paging  Paging  `json:"paging"`
}

type Order struct {
	ID          int64       `json:"id"`
	Status      string      `json:"status"`
	DateCreated string      `json:"date_created"`
	OrderItems  []OrderItem `json:"order_items"`
}

type OrderItem struct {
	Item     ItemRef `json:"item"`
	Quantity int     `json:"quantity"`
}

type ItemRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	SellerSKU string `json:"seller_sku"`
}

// ItemSearchResponse is one page of GET /users/{id}/items/search:
// listing IDs only, details come from the items batch call.
type ItemSearchResponse struct {
	Results []string `json:"results"`
	Paging  Paging   `json:"paging"`
}

// ItemDetailEnvelope wraps one element of the GET /items?ids= batch response.
type ItemDetailEnvelope struct {
	Code int        `json:"code"`
	Body ItemDetail `json:"body"`
}

type ItemDetail struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SellerSKU   string `json:"seller_custom_field"`
	InventoryID string `json:"inventory_id"`
}

// FulfillmentStock is GET /inventories/{id}/stock/fulfillment.
type FulfillmentStock struct {
	InventoryID       string `json:"inventory_id"`
	Total             int    `json:"total"`
	AvailableQuantity int    `json:"available_quantity"`
}

// OperationSearchResponse is one page of the fulfillment operations history.
type OperationSearchResponse struct {
	Results []Operation `json:"results"`
	Paging  Paging      `json:"paging"`
}

type Operation struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	DateCreated string          `json:"date_created"`
	Detail      OperationDetail `json:"detail"`
}

type OperationDetail struct {
	Quantity int `json:"quantity"`
}

// TestUser is the sandbox account returned by POST /users/test_user.
type TestUser struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
	SiteID   string `json:"site_id"`
	Email    string `json:"email"`
}
