// Package gateway is the production implementation of the external payment
// effect: it delivers the payout to the provider endpoint over HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arhebs/payout-service/internal/core/domain"
	"github.com/arhebs/payout-service/internal/core/worker"
)

type Client struct {
	url    string
	client *http.Client
}

// NewClient builds a provider client for the given endpoint. An empty URL
// puts the client in local mode: every Send succeeds without a network call,
// which stands in for the provider during development.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		// Don't let a slow provider hold a worker forever.
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers the payout to the payment provider. It satisfies
// worker.Effect: nil means the payout went through, a plain error is a
// transient failure the dispatcher may retry, and an error wrapping
// worker.ErrPermanentEffect is a rejection that must not be retried.
func (c *Client) Send(ctx context.Context, p *domain.Payout) error {
	if c.url == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"payout_id":         p.ID,
		"amount":            p.Amount.StringFixed(2),
		"currency":          p.Currency,
		"recipient_details": p.RecipientDetails,
		"description":       p.Description,
	})
	if err != nil {
		return fmt.Errorf("%w: encode payout: %v", worker.ErrPermanentEffect, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build provider request: %v", worker.ErrPermanentEffect, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "payout-service/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call payment provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("payment provider returned %d", resp.StatusCode)
	default:
		return fmt.Errorf("%w: provider returned %d", worker.ErrPermanentEffect, resp.StatusCode)
	}
}
