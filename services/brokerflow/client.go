package brokerflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client queries a third-party broker-flow analytics API. Read-only; the
// payload feeds a supplementary dashboard panel and is passed through as-is.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a broker-flow API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FlowSummary fetches the broker-flow summary for a symbol over the last n days
func (c *Client) FlowSummary(ctx context.Context, symbol string, days int) (json.RawMessage, error) {
	if days < 1 {
		days = 5
	}

	reqURL := fmt.Sprintf("%s/v1/broker-summary/%s?days=%d", c.baseURL, url.PathEscape(symbol), days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch broker flow: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("broker flow error (status %d): %s", resp.StatusCode, string(body))
	}

	return json.RawMessage(body), nil
}
