// Package api is the HTTP client for the restaurant backend. It reads the
// kitchen feed, fetches existing orders for appending and submits new ones,
// tolerating the several payload shapes the backend has produced over time.
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
	"unicode/utf8"

	"github.com/hammamikhairi/ottopos/internal/domain"
	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.KitchenSource = (*Client)(nil)
	_ domain.OrderAPI      = (*Client)(nil)
	_ domain.StatusUpdater = (*Client)(nil)
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := truncate(strings.TrimSpace(e.Body), 200)
	return fmt.Sprintf("api: %s %s: %d %s: %s", e.Method, e.Path, e.Code, http.StatusText(e.Code), body)
}

// truncate shortens s to at most n bytes, cutting on a rune boundary and
// marking the cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > n-3 {
			break
		}
		cut += size
	}
	return s[:cut] + "..."
}

// Unwrap maps 404 to domain.ErrNotFound so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// Client talks to the restaurant REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a backend client rooted at baseURL
// (e.g. "http://localhost:8080/api").
func NewClient(baseURL string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListKitchenOrders fetches GET /kitchen-orders. Records that cannot be
// decoded are skipped; records whose items cannot be decoded keep an empty
// item list.
func (c *Client) ListKitchenOrders(ctx context.Context) ([]domain.KitchenOrder, error) {
	raw, err := c.do(ctx, http.MethodGet, "/kitchen-orders", nil)
	if err != nil {
		return nil, err
	}

	records, err := unwrapList(raw)
	if err != nil {
		return nil, fmt.Errorf("api: decode kitchen orders: %w", err)
	}

	out := make([]domain.KitchenOrder, 0, len(records))
	for i, rec := range records {
		var w wireOrder
		if err := json.Unmarshal(rec, &w); err != nil {
			c.log.Warn("api: skipping kitchen record %d: %v", i, err)
			continue
		}
		items, ok := decodeItems(w.Items)
		if !ok {
			c.log.Warn("api: order %s has unreadable items, showing none", w.id())
		}
		out = append(out, toKitchenOrder(w, items))
	}
	c.log.Debug("api: %d kitchen orders", len(out))
	return out, nil
}

// GetOrder fetches GET /orders/{id}. Unreadable items degrade to an empty
// item list; only an order object that cannot be decoded fails the call.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.RemoteOrder, error) {
	raw, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var w wireOrder
	if err := json.Unmarshal(unwrapObject(raw), &w); err != nil {
		return nil, fmt.Errorf("api: decode order %s: %w: %v", id, domain.ErrMalformedPayload, err)
	}
	items, ok := decodeItems(w.Items)
	if !ok {
		c.log.Warn("api: order %s has unreadable items, loading it without them", id)
	}

	order := toRemoteOrder(w, items)
	if order.ID == "" {
		order.ID = id
	}
	return order, nil
}

// CreateOrder posts the payload to POST /orders.
func (c *Client) CreateOrder(ctx context.Context, payload domain.OrderPayload) (*domain.CreatedOrder, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("api: marshal order: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return nil, err
	}

	var w struct {
		ID      flexString `json:"id"`
		AltID   flexString `json:"_id"`
		OrderID flexString `json:"orderId"`
		Status  string     `json:"status"`
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(unwrapObject(raw), &w); err != nil {
			return nil, fmt.Errorf("api: decode created order: %w: %v", domain.ErrMalformedPayload, err)
		}
	}
	created := &domain.CreatedOrder{
		ID:     string(firstNonEmpty(w.ID, w.AltID, w.OrderID)),
		Status: w.Status,
	}
	if created.ID == "" {
		created.ID = payload.OrderID
	}
	c.log.Info("api: order %s created (%d items)", created.ID, len(payload.Items))
	return created, nil
}

// UpdateStatus sends PATCH /orders/{id}/status.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return fmt.Errorf("api: marshal status: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("api: %s %s (%d bytes)", method, path, len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
