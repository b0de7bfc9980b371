// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("payment processor not configured")

// Client talks to the payment processor's REST API (form-encoded
// requests, JSON responses, bearer auth). The base URL is configurable
// so tests can point it at a local fake.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient creates a processor client. secretKey may be empty, in
// which case every call fails with ErrNotConfigured.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
	}
}

// Configured reports whether a secret key is present.
func (c *Client) Configured() bool {
	return c.secretKey != ""
}

// CheckoutParams describes a subscription-mode checkout session.
type CheckoutParams struct {
	CustomerID  string
	UserID      string
	ProductName string
	UnitAmount  int // cents
	Currency    string
	Interval    string
	SuccessURL  string
	CancelURL   string
}

// CreateCustomer registers a customer record with the processor and
// returns its ID. The user ID rides along as metadata so webhook
// events can be tied back to a profile.
func (c *Client) CreateCustomer(ctx context.Context, name, userID string) (string, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("metadata[user_id]", userID)

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v1/customers", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("payment processor returned no customer id")
	}
	return resp.ID, nil
}

// CreateCheckoutSession creates a hosted checkout session and returns
// its redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer", p.CustomerID)
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("metadata[user_id]", p.UserID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", p.Currency)
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", p.UnitAmount))
	form.Set("line_items[0][price_data][recurring][interval]", p.Interval)
	form.Set("line_items[0][price_data][product_data][name]", p.ProductName)

	var resp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/v1/checkout/sessions", form, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", errors.New("payment processor returned no checkout url")
	}
	return resp.URL, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("payment processor returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode payment response: %w", err)
	}
	return nil
}
