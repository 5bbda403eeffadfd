package meli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production MercadoLibre API host.
const DefaultBaseURL = "https://api.mercadolibre.com"

// maxResponseSize is the maximum allowed response size from the API (10MB)
const maxResponseSize = 10 * 1024 * 1024

var ErrNotConfigured = errors.New("meli: client credentials are not configured")

// APIError is a non-2xx response from the marketplace.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meli: upstream returned %d: %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether the upstream rejected our credentials/session.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string // defaults to DefaultBaseURL; overridable for tests
}

func (c *Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrNotConfigured
	}
	return nil
}

// Client is a thin REST client for the MercadoLibre API. All calls are
// bearer-token-authenticated JSON over HTTPS; pagination is limit/offset.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// AuthorizeURL builds the OAuth consent URL. The state parameter carries the
// organization ID back through the callback.
func (c *Client) AuthorizeURL(siteAuthHost, state string) string {
	if siteAuthHost == "" {
		siteAuthHost = "https://auth.mercadolibre.com"
	}
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.config.ClientID)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("state", state)
	return siteAuthHost + "/authorization?" + q.Encode()
}

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.config.RedirectURI)
	return c.postToken(ctx, form)
}

// RefreshToken exchanges a refresh token for a new access/refresh pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("refresh_token", refreshToken)
	return c.postToken(ctx, form)
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var token TokenResponse
	if err := c.do(req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Me calls the who-am-I endpoint; a rejected call means the stored session
// is no longer usable and the account must be reconnected.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserInfo, error) {
	var info UserInfo
	if err := c.get(ctx, accessToken, "/users/me", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SearchOrders pages through the seller's recently paid orders.
func (c *Client) SearchOrders(ctx context.Context, accessToken string, sellerID int64, limit, offset int) (*OrderSearchResponse, error) {
	q := url.Values{}
	q.Set("seller", strconv.FormatInt(sellerID, 10))
	q.Set("order.status", "paid")
	q.Set("sort", "date_desc")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page OrderSearchResponse
	if err := c.get(ctx, accessToken, "/orders/search", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchItemIDs lists the seller's item IDs, one page at a time.
func (c *Client) SearchItemIDs(ctx context.Context, accessToken string, sellerID int64, limit, offset int) (*ItemSearchResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page ItemSearchResponse
	path := fmt.Sprintf("/users/%d/items/search", sellerID)
	if err := c.get(ctx, accessToken, path, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetItems resolves item details (including fulfillment inventory IDs)
// for up to 20 item IDs per batch call.
func (c *Client) GetItems(ctx context.Context, accessToken string, itemIDs []string) ([]ItemDetailEnvelope, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(itemIDs, ","))
	q.Set("attributes", "id,title,seller_custom_field,inventory_id")

	var envelopes []ItemDetailEnvelope
	if err := c.get(ctx, accessToken, "/items", q, &envelopes); err != nil {
		return nil, err
	}
	return envelopes, nil
}

// GetFulfillmentStock returns current stock levels for one inventory ID.
func (c *Client) GetFulfillmentStock(ctx context.Context, accessToken, inventoryID string) (*FulfillmentStock, error) {
	var stock FulfillmentStock
	path := fmt.Sprintf("/inventories/%s/stock/fulfillment", url.PathEscape(inventoryID))
	if err := c.get(ctx, accessToken, path, nil, &stock); err != nil {
		return nil, err
	}
	return &stock, nil
}

// SearchOperations returns the receiving-operations history for one
// inventory ID within a date window.
func (c *Client) SearchOperations(ctx context.Context, accessToken, inventoryID string, from, to time.Time) (*OperationSearchResponse, error) {
	q := url.Values{}
	q.Set("inventory_id", inventoryID)
	q.Set("date_from", from.UTC().Format(time.RFC3339))
	q.Set("date_to", to.UTC().Format(time.RFC3339))

	var page OperationSearchResponse
	if err := c.get(ctx, accessToken, "/stock/fulfillment/operations/search", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateTestUser provisions a sandbox account on the given site.
func (c *Client) CreateTestUser(ctx context.Context, accessToken, siteID string) (*TestUser, error) {
	payload, _ := json.Marshal(map[string]string{"site_id": siteID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/users/test_user", strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var user TestUser
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RevokeGrant removes this application's authorization for the user.
// Disconnect treats this as best-effort: the local delete is authoritative.
func (c *Client) RevokeGrant(ctx context.Context, accessToken string, meliUserID int64) error {
	path := fmt.Sprintf("/users/%d/applications/%s", meliUserID, url.PathEscape(c.config.ClientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.do(req, nil)
}

func (c *Client) get(ctx context.Context, accessToken, path string, query url.Values, out interface{}) error {
	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &errBody) == nil {
			apiErr.Message = errBody.Message
			if apiErr.Message == "" {
				apiErr.Message = errBody.Error
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
