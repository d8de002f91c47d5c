package stockbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrTokenExpired is returned when the Stockbit API rejects the bearer token.
// The cached token is invalidated as a side effect so the next call refetches
// it from the session store.
var ErrTokenExpired = errors.New("stockbit token expired")

// ErrNoBrokerData is returned by MarketDetector when the detector has no
// broker aggregates for the symbol.
var ErrNoBrokerData = errors.New("no broker data")

// Client calls the Stockbit data API
type Client struct {
	baseURL    string
	tokens     *TokenProvider
	httpClient *http.Client
}

// NewClient creates a Stockbit API client
func NewClient(baseURL string, tokens *TokenProvider) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// get performs an authenticated GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return ErrTokenExpired
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stockbit error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}

	return nil
}

// Watchlist fetches the symbols of a watchlist group
func (c *Client) Watchlist(ctx context.Context, group string) ([]WatchlistItem, error) {
	var response WatchlistResponse
	path := fmt.Sprintf("/findata-view/watchlist/%s", url.PathEscape(group))
	if err := c.get(ctx, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// MarketDetector fetches broker buy/sell aggregates for a symbol over a date
// range. Returns an error when the broker dataset is empty; the batch runner
// treats that condition as a skip instead.
func (c *Client) MarketDetector(ctx context.Context, symbol string, from, to time.Time) (*BrokerSummary, error) {
	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))

	var response MarketDetectorResponse
	path := fmt.Sprintf("/market-detector/%s", url.PathEscape(symbol))
	if err := c.get(ctx, path, query, &response); err != nil {
		return nil, err
	}

	if len(response.Data.BrokersBuy) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoBrokerData, symbol)
	}

	return &response.Data, nil
}

// Orderbook fetches the order book preview for a symbol
func (c *Client) Orderbook(ctx context.Context, symbol string) (*Orderbook, error) {
	var response OrderbookResponse
	path := fmt.Sprintf("/orderbook/preview/%s", url.PathEscape(symbol))
	if err := c.get(ctx, path, nil, &response); err != nil {
		return nil, err
	}
	return &response.Data, nil
}

// CompanyInfo fetches company name and sector classification for a symbol
func (c *Client) CompanyInfo(ctx context.Context, symbol string) (*CompanyInfo, error) {
	var response CompanyInfoResponse
	path := fmt.Sprintf("/company/%s/info", url.PathEscape(symbol))
	if err := c.get(ctx, path, nil, &response); err != nil {
		return nil, err
	}
	return &response.Data, nil
}

// DailySummary fetches the realized daily bar for a symbol on a given date
func (c *Client) DailySummary(ctx context.Context, symbol string, date time.Time) (*DailyBar, error) {
	query := url.Values{}
	query.Set("date", date.Format("2006-01-02"))

	var response DailySummaryResponse
	path := fmt.Sprintf("/findata/daily/%s", url.PathEscape(symbol))
	if err := c.get(ctx, path, query, &response); err != nil {
		return nil, err
	}

	if len(response.Data) == 0 {
		return nil, fmt.Errorf("no daily summary for %s on %s", symbol, date.Format("2006-01-02"))
	}

	return &response.Data[0], nil
}

// Keystats fetches valuation key statistics for a symbol. The payload is
// passed through unparsed for the UI panel.
func (c *Client) Keystats(ctx context.Context, symbol string) (json.RawMessage, error) {
	var response json.RawMessage
	path := fmt.Sprintf("/keystats/ratio/v2/%s", url.PathEscape(symbol))
	if err := c.get(ctx, path, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}
