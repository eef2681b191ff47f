// internal/designer/cartclient/client.go

// Package cartclient wraps the platform's cart HTTP API for the wall
// designer. It is a thin pass-through: each method issues one request
// and returns the canonical cart the server responded with, or a typed
// error. It never retries; the placement store treats the backend as an
// eventually-consistent shadow of local state.
package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Placement carries the durable placement fields of one wall item.
// Positions are canvas fractions in [0,1] of the item's center; scale
// multiplies the product's base physical size.
type Placement struct {
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Scale     float64 `json:"scale"`
	Rotation  float64 `json:"rotation"`
	ZIndex    int     `json:"z_index"`
}

// SizeVariant mirrors the catalog's per-size data the designer needs to
// derive pixel geometry.
type SizeVariant struct {
	WidthCM  float64 `json:"width_cm"`
	HeightCM float64 `json:"height_cm"`
	Price    float64 `json:"price"`
}

// Product is the populated product carried on each cart line.
type Product struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	ImageURL string        `json:"image_url"`
	Sizes    []SizeVariant `json:"sizes"`
}

// CartItem is one server-persisted cart line. Placement fields are
// pointers: a line added outside the designer has none stored, and the
// designer defaults them (canvas center, scale 1) on sync.
type CartItem struct {
	ID        string   `json:"id"`
	Product   Product  `json:"product"`
	SizeIndex int      `json:"size_index"`
	Quantity  int      `json:"quantity"`
	PositionX *float64 `json:"position_x"`
	PositionY *float64 `json:"position_y"`
	Scale     *float64 `json:"scale"`
	Rotation  float64  `json:"rotation"`
	ZIndex    int      `json:"z_index"`
}

type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
}

// TransportError is any failure to reach the backend or read its
// response. Always recoverable locally.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cart %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is a backend rejection of the request payload
// (unknown product, size index out of range, malformed placement).
type ValidationError struct {
	Op      string
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cart %s: backend rejected request (%d): %s", e.Op, e.Status, e.Message)
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	log        *logrus.Entry
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      token,
		log:        logrus.WithField("component", "cartclient"),
	}
}

// Fetch returns the authenticated user's cart.
func (c *Client) Fetch(ctx context.Context) (*Cart, error) {
	return c.doCart(ctx, http.MethodGet, "/v1/cart", nil, "fetch")
}

type addItemRequest struct {
	ProductID string     `json:"product_id"`
	SizeIndex int        `json:"size_index"`
	Placement *Placement `json:"placement,omitempty"`
}

// AddOrUpdate appends a placement line to the cart and returns the
// updated cart, whose new line carries the server-issued item id.
func (c *Client) AddOrUpdate(ctx context.Context, productID string, sizeIndex int, placement Placement) (*Cart, error) {
	body := addItemRequest{ProductID: productID, SizeIndex: sizeIndex, Placement: &placement}
	return c.doCart(ctx, http.MethodPost, "/v1/cart/items", body, "add")
}

// UpdatePlacement rewrites the placement metadata of an existing line.
func (c *Client) UpdatePlacement(ctx context.Context, itemID string, placement Placement) (*Cart, error) {
	path := "/v1/cart/items/" + url.PathEscape(itemID) + "/placement"
	return c.doCart(ctx, http.MethodPatch, path, placement, "update placement")
}

type changeSizeRequest struct {
	SizeIndex int `json:"size_index"`
}

// ChangeSize re-prices a line to a different size variant.
func (c *Client) ChangeSize(ctx context.Context, itemID string, newSizeIndex int) (*Cart, error) {
	path := "/v1/cart/items/" + url.PathEscape(itemID) + "/size"
	return c.doCart(ctx, http.MethodPatch, path, changeSizeRequest{SizeIndex: newSizeIndex}, "change size")
}

// Remove deletes a line. Removing an already-absent item is not an
// error; the endpoint is safely retriable.
func (c *Client) Remove(ctx context.Context, itemID string) error {
	path := "/v1/cart/items/" + url.PathEscape(itemID)
	resp, err := c.do(ctx, http.MethodDelete, path, nil, "remove")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp, "remove")
	}
	return nil
}

// Clear empties the whole cart (used after checkout).
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "/v1/cart", nil, "clear")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp, "clear")
	}
	return nil
}

func (c *Client) doCart(ctx context.Context, method, path string, body interface{}, op string) (*Cart, error) {
	resp, err := c.do(ctx, method, path, body, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFrom(resp, op)
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var cart Cart
	if err := json.Unmarshal(env.Data, &cart); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return &cart, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, op string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) errorFrom(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		message := ""
		var env apiEnvelope
		if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
			message = env.Error.Message
		}
		if message == "" {
			message = string(raw)
		}
		return &ValidationError{Op: op, Status: resp.StatusCode, Message: message}
	}

	return &TransportError{
		Op:  op,
		Err: fmt.Errorf("status %d: %s", resp.StatusCode, raw),
	}
}
