package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
)

// DefaultTimeout is the default HTTP timeout.
const DefaultTimeout = 30 * time.Second

// Client reads daily OHLCV bars from an end-of-day price API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    ports.Limiter
	logger     *slog.Logger
}

var _ ports.PriceSource = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLimiter gates every request through limiter.
func WithLimiter(limiter ports.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a price client for baseURL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type eodBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// PriceHistory returns the bars between from and to inclusive, ordered by date.
func (c *Client) PriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]domain.PriceBar, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.Format(domain.DateLayout))
	}
	if !to.IsZero() {
		params.Set("to", to.Format(domain.DateLayout))
	}

	var raw []eodBar
	if err := c.get(ctx, "/eod/"+url.PathEscape(symbol), params, &raw); err != nil {
		return nil, fmt.Errorf("price history %s: %w", symbol, err)
	}

	bars := make([]domain.PriceBar, 0, len(raw))
	for _, r := range raw {
		day, err := time.Parse(domain.DateLayout, strings.TrimSpace(firstField(r.Date)))
		if err != nil {
			c.warn("skip bar with bad date", "symbol", symbol, "date", r.Date)
			continue
		}
		bars = append(bars, domain.PriceBar{
			Date:   day,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// PriceBar returns the bar for day, or nil when the market has none (closed day, not yet published).
func (c *Client) PriceBar(ctx context.Context, symbol string, day time.Time) (*domain.PriceBar, error) {
	day = domain.Day(day)
	bars, err := c.PriceHistory(ctx, symbol, day, day)
	if err != nil {
		return nil, err
	}

	var found *domain.PriceBar
	for i := range bars {
		if bars[i].Date.Equal(day) {
			found = &bars[i]
		}
	}
	return found, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if c.apiKey != "" {
		params.Set("api_token", c.apiKey)
	}
	params.Set("fmt", "json")
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("price api request", "url", c.baseURL+path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("price api %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// firstField drops a time component such as "2024-10-09 00:00:00".
func firstField(s string) string {
	if i := strings.IndexAny(s, " T"); i > 0 {
		return s[:i]
	}
	return s
}
