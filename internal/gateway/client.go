// Package gateway talks to the external payment gateway: signed payment
// initiation and webhook signature verification.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/model"
	"storefront/internal/sign"
)

var (
	ErrNotConfigured = errors.New("payment gateway is not configured")
	ErrNoRedirectURL = errors.New("gateway response has no redirect url")
)

// UpstreamError carries the gateway's status and (truncated) body for
// operator diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	ShopID      string
	Secret      string
	BaseURL     string
	SuccessURL  string
	FailURL     string
	NotifyURL   string
	Description string
}

type Client struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		// Billing-sensitive: the timeout bounds the call, and there is
		// deliberately no retry anywhere in this client.
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.cfg.ShopID != "" && c.cfg.Secret != "" && c.cfg.BaseURL != ""
}

type initResponse struct {
	URL string `json:"url"`
}

// InitiatePayment signs and posts a payment-initiation request, returning
// the hosted checkout redirect URL.
func (c *Client) InitiatePayment(ctx context.Context, o *model.Order, methodSlug string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload := map[string]any{
		"order_id":    o.ID,
		"method_slug": methodSlug,
		"amount":      o.Amount,
		"shop_id":     c.cfg.ShopID,
		"success_url": c.cfg.SuccessURL,
		"fail_url":    c.cfg.FailURL,
		"description": c.cfg.Description,
		"notify_url":  c.cfg.NotifyURL,
	}
	payload["signature"] = sign.Sign(payload, c.cfg.Secret)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/payment/init", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var res initResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if res.URL == "" {
		return "", ErrNoRedirectURL
	}
	return res.URL, nil
}

// VerifyWebhook checks an inbound callback payload against the shared
// secret. The "signature" field itself is excluded from the signed material.
func (c *Client) VerifyWebhook(payload map[string]any) bool {
	sig, _ := payload["signature"].(string)
	if sig == "" {
		return false
	}
	return sign.Verify(payload, sig, c.cfg.Secret)
}
