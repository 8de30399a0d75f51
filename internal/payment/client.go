// Package payment integrates the hosted-checkout payment provider used
// for quota top-ups. Only the session-confirmation contract is covered:
// create a checkout session, then verify its paid status on the redirect
// back.
package payment

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

	"docconvert/internal/infra"
)

var (
	// ErrMissingSecretKey indicates the client was configured without credentials.
	ErrMissingSecretKey = errors.New("payment: secret key is required")
	// ErrMissingPriceID indicates no purchasable price was configured.
	ErrMissingPriceID = errors.New("payment: price id is required")
)

// Options configures the payment provider client.
type Options struct {
	SecretKey      string
	PriceID        string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the payment provider API.
type Client struct {
	secretKey  string
	priceID    string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// CheckoutSession is the provider's view of one checkout.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

// Paid reports whether the provider confirmed payment for the session.
func (s *CheckoutSession) Paid() bool {
	return s != nil && s.PaymentStatus == "paid"
}

// NewClient builds a payment client from Options.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SecretKey) == "" {
		return nil, ErrMissingSecretKey
	}
	if strings.TrimSpace(opts.PriceID) == "" {
		return nil, ErrMissingPriceID
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.stripe.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		secretKey:  opts.SecretKey,
		priceID:    opts.PriceID,
		baseURL:    base,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// CreateCheckoutSession opens a hosted checkout for one quota top-up and
// returns the session, whose ID doubles as the pending-payment nonce.
func (c *Client) CreateCheckoutSession(ctx context.Context, successURL, cancelURL string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price]", c.priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payment: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, "create checkout session")
}

// RetrieveSession fetches the current state of a checkout session.
func (c *Client) RetrieveSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("payment: session id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/checkout/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("payment: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req, "retrieve checkout session")
}

func (c *Client) do(req *http.Request, op string) (*CheckoutSession, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment: %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("payment: %s: read response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		if c.logger != nil {
			c.logger.Error().Int("status", resp.StatusCode).Str("op", op).
				Msg("payment provider error")
		}
		return nil, fmt.Errorf("payment: %s: status %d", op, resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("payment: %s: decode response: %w", op, err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("payment: %s: response missing session id", op)
	}
	return &session, nil
}
