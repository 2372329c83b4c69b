package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the market data API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// rsiPeriod is the lookback for the relative strength index.
	rsiPeriod = 14
)

// Client is a market data API client.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	logger        arbor.ILogger
	limiter       *rate.Limiter
	avgVolumeDays int
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithAvgVolumeWindow sets the trailing window for the average-volume baseline.
func WithAvgVolumeWindow(days int) ClientOption {
	return func(c *Client) {
		if days > 0 {
			c.avgVolumeDays = days
		}
	}
}

// NewClient creates a new market data API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		avgVolumeDays: 20,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Market API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetEOD retrieves end-of-day bars for a symbol, oldest first.
// Symbol format: TICKER.EXCHANGE (e.g., "INFY.NSE", "AAPL.US").
func (c *Client) GetEOD(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("to", to.Format("2006-01-02"))
	}

	var result []Bar
	if err := c.get(ctx, "/eod/"+symbol, params, &result); err != nil {
		return nil, err
	}

	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// GetQuote builds the technical snapshot for a symbol from recent daily
// bars: latest close and volume, the trailing average volume, and RSI.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	// Enough calendar days to cover the RSI period plus the volume
	// window across weekends and holidays.
	lookback := (rsiPeriod + c.avgVolumeDays + 10) * 2
	from := time.Now().AddDate(0, 0, -lookback)

	bars, err := c.GetEOD(ctx, symbol, from, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price history for %s", symbol)
	}

	latest := bars[len(bars)-1]
	quote := &Quote{
		Symbol:    symbol,
		Price:     latest.Close,
		Volume:    latest.Volume,
		AvgVolume: averageVolume(bars, c.avgVolumeDays),
		RSI:       computeRSI(bars, rsiPeriod),
		AsOf:      latest.Date,
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Float64("price", quote.Price).
			Float64("rsi", quote.RSI).
			Msg("Market quote assembled")
	}

	return quote, nil
}

// averageVolume averages the window of sessions before the latest bar.
func averageVolume(bars []Bar, window int) float64 {
	if len(bars) < 2 {
		return 0
	}
	end := len(bars) - 1 // exclude the latest session
	start := end - window
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, b := range bars[start:end] {
		sum += b.Volume
	}
	n := end - start
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// computeRSI returns Wilder's RSI over the closing prices, 0 when the
// history is too short.
func computeRSI(bars []Bar, period int) float64 {
	if len(bars) < period+1 {
		return 0
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
