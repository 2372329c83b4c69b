// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NSE:INFY", "BSE:TATAMOTORS")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NSE", "BSE", "NYSE")
	Exchange string
	// Code is the stock code (e.g., "INFY", "TCS")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to market-data API suffixes.
var ExchangeToSuffix = map[string]string{
	"NSE":    ".NSE",
	"BSE":    ".BSE",
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"LSE":    ".LSE",
	"ASX":    ".AU",
}

// DefaultExchange is the exchange assumed when a ticker carries no prefix.
// Overridden via [markets] default_exchange in TOML.
var DefaultExchange = "NSE"

// SetDefaultExchange sets the default exchange for parsing tickers.
// Called during startup from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "NSE:INFY" -> Exchange="NSE", Code="INFY" (colon separator)
//   - "NSE.INFY" -> Exchange="NSE", Code="INFY" (dot separator)
//   - "INFY"     -> Exchange=DefaultExchange, Code="INFY"
//   - "infy"     -> Exchange=DefaultExchange, Code="INFY" (normalized to uppercase)
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	// Dot separator only counts when the prefix is a known exchange,
	// codes themselves can contain dots
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToSuffix[possibleExchange]; ok {
			return Ticker{
				Exchange: possibleExchange,
				Code:     strings.ToUpper(ticker[idx+1:]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// MarketSymbol returns the market-data API symbol format.
// Example: "NSE:INFY" -> "INFY.NSE"
func (t Ticker) MarketSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = ".NSE"
	}
	return t.Code + suffix
}

// ParseTickers parses a list of ticker strings, skipping empty entries.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if parsed := ParseTicker(t); parsed.Code != "" {
			result = append(result, parsed)
		}
	}
	return result
}
