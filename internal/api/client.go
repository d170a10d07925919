// Package api is the HTTP client for the QuickOrder backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quickorder/internal/domain"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// do sends body as JSON (when non-nil) and decodes the response into out
// (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: malformed response: %w", method, path, err)
	}
	return nil
}

// Health returns nil when the backend answers {"status":"ok"}.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("health: unexpected status %q", out.Status)
	}
	return nil
}

// -------------------------
// Profile
// -------------------------

// GetProfile returns nil when the server has no profile yet.
func (c *Client) GetProfile(ctx context.Context) (*domain.Profile, error) {
	var p *domain.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	var out []domain.Profile
	if err := c.do(ctx, http.MethodGet, "/api/all-profiles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, http.MethodPost, "/api/profile", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -------------------------
// Items
// -------------------------

// NewItem is the create payload. Price is sent as exact text.
type NewItem struct {
	VendorID string          `json:"vendorId,omitempty"`
	Name     string          `json:"name"`
	Unit     domain.Unit     `json:"unit"`
	Category domain.Category `json:"category"`
	Price    string          `json:"price"`
	ImageKey *string         `json:"imageKey,omitempty"`
}

// ItemPatch carries only the fields being changed.
type ItemPatch struct {
	Name     *string          `json:"name,omitempty"`
	Unit     *domain.Unit     `json:"unit,omitempty"`
	Category *domain.Category `json:"category,omitempty"`
	Price    *string          `json:"price,omitempty"`
	ImageKey *string          `json:"imageKey,omitempty"`
	VendorID *string          `json:"vendorId,omitempty"`
}

// ListItems returns the vendor's items plus the shared catalog.
func (c *Client) ListItems(ctx context.Context, vendorID string) ([]domain.CatalogItem, error) {
	path := "/api/items"
	if vendorID != "" {
		path += "?vendorId=" + url.QueryEscape(vendorID)
	}
	var out []domain.CatalogItem
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateItem(ctx context.Context, item NewItem) (*domain.CatalogItem, error) {
	var out domain.CatalogItem
	if err := c.do(ctx, http.MethodPost, "/api/items", item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateItemForVendors creates one copy of item per vendor id.
func (c *Client) CreateItemForVendors(ctx context.Context, item NewItem, vendorIDs []string) ([]domain.CatalogItem, error) {
	body := struct {
		NewItem
		VendorIDs []string `json:"vendorIds"`
	}{NewItem: item, VendorIDs: vendorIDs}
	body.VendorID = ""

	var out []domain.CatalogItem
	if err := c.do(ctx, http.MethodPost, "/api/items", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*domain.CatalogItem, error) {
	var out domain.CatalogItem
	if err := c.do(ctx, http.MethodPatch, "/api/items/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil)
}

// -------------------------
// Vendors
// -------------------------

type VendorPatch struct {
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	IsSpecial *bool   `json:"isSpecial,omitempty"`
}

func (c *Client) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	var out []domain.Vendor
	if err := c.do(ctx, http.MethodGet, "/api/vendors", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateVendor(ctx context.Context, name, phone string) (*domain.Vendor, error) {
	body := map[string]string{"name": name, "phone": phone}
	var out domain.Vendor
	if err := c.do(ctx, http.MethodPost, "/api/vendors", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateVendor(ctx context.Context, id string, patch VendorPatch) (*domain.Vendor, error) {
	var out domain.Vendor
	if err := c.do(ctx, http.MethodPatch, "/api/vendors/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVendor also removes the vendor's items and order records server-side.
func (c *Client) DeleteVendor(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/vendors/"+url.PathEscape(id), nil, nil)
}

// -------------------------
// Orders
// -------------------------

func (c *Client) ListOrders(ctx context.Context) ([]domain.OrderRecord, error) {
	var out []domain.OrderRecord
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrder(ctx context.Context, rec domain.OrderRecord) (*domain.OrderRecord, error) {
	var out domain.OrderRecord
	if err := c.do(ctx, http.MethodPost, "/api/orders", rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
