package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	planerr "github.com/vinayprograms/plankit/errors"
)

// ClientConfig holds HTTP booking client configuration.
type ClientConfig struct {
	// BaseURL of the booking provider's API.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds each request.
	Timeout time.Duration
}

// DefaultClientConfig returns configuration with sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout: 15 * time.Second,
	}
}

// Client is a JSON-over-HTTP booking service client implementing Service.
type Client struct {
	config ClientConfig
	client *http.Client
}

// NewClient creates a booking client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Search implements Searcher.
func (c *Client) Search(ctx context.Context, criteria Criteria) ([]Option, error) {
	var result struct {
		Options []Option `json:"options"`
	}
	if err := c.post(ctx, "/search", criteria, &result); err != nil {
		return nil, planerr.ExternalService("booking", err)
	}
	return result.Options, nil
}

// Confirm implements Confirmer.
func (c *Client) Confirm(ctx context.Context, optionID, paymentProof string) (*Confirmation, error) {
	req := struct {
		OptionID     string `json:"option_id"`
		PaymentProof string `json:"payment_proof"`
	}{OptionID: optionID, PaymentProof: paymentProof}

	var confirmation Confirmation
	if err := c.post(ctx, "/confirm", req, &confirmation); err != nil {
		return nil, planerr.ExternalService("booking", err)
	}
	return &confirmation, nil
}

// post sends a JSON request and decodes a JSON response.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("booking provider returned %d: %s", resp.StatusCode, payload)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
