// Package market provides a client for end-of-day market data used to
// derive the quantitative alpha overlay.
package market

import (
	"fmt"
	"time"
)

// Quote is the technical snapshot the alpha model needs for one symbol.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    float64
	AvgVolume float64 // Short trailing average, excludes the latest session
	RSI       float64 // 14-period, 0 when insufficient history
	AsOf      time.Time
}

// Bar is one end-of-day price record.
type Bar struct {
	DateStr  string    `json:"date"`
	Date     time.Time `json:"-"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   float64   `json:"volume"`
}

// APIError represents a non-200 response from the market data API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit wait cut short by the context.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("market API rate limit exceeded, retry after %v", e.RetryAfter)
}
