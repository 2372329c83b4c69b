package score

import (
	"regexp"
	"strconv"
	"strings"
)

// Figure is one parsed currency amount, normalized to crore.
type Figure struct {
	Crore       float64
	Conditional bool // Future/target figure, not a realized one
	Raw         string
}

// usdToINR is the flat conversion applied to dollar-denominated figures.
// Precision does not matter here; magnitude gates on order of size.
const usdToINR = 83.0

var currencyFigureRe = regexp.MustCompile(`(?i)(₹|rs\.?\s?|inr\s?|\$|usd\s?)\s?(\d[\d,]*(?:\.\d+)?)\s*(crore|cr\b|lakh|million|billion|mn\b|bn\b)?`)

var conditionalContextRe = regexp.MustCompile(`(?i)\b(?:targets?|aims?(?:\s+for)?|expects?|expected|projected|guidance|may|might|could|plans?\s+to|eyeing)\b`)

// ParseFigures extracts currency figures from text. A figure is marked
// conditional when forward-looking language appears in the preceding
// context window; conditional figures never contribute to magnitude but
// do feed the fake-rally flag.
func ParseFigures(text string) []Figure {
	matches := currencyFigureRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	figures := make([]Figure, 0, len(matches))
	for _, loc := range matches {
		sub := currencyFigureRe.FindStringSubmatch(text[loc[0]:loc[1]])
		if sub == nil {
			continue
		}

		value, err := strconv.ParseFloat(strings.ReplaceAll(sub[2], ",", ""), 64)
		if err != nil {
			continue
		}

		currency := strings.ToLower(strings.TrimSpace(strings.Trim(sub[1], ". ")))
		unit := strings.ToLower(strings.TrimSpace(sub[3]))

		crore := toCrore(value, currency, unit)
		if crore <= 0 {
			continue
		}

		// Look back a short window for conditional context
		windowStart := loc[0] - 60
		if windowStart < 0 {
			windowStart = 0
		}
		conditional := conditionalContextRe.MatchString(text[windowStart:loc[0]])

		figures = append(figures, Figure{
			Crore:       crore,
			Conditional: conditional,
			Raw:         text[loc[0]:loc[1]],
		})
	}

	return figures
}

// toCrore normalizes a currency value to crore. Dollar figures convert at
// a flat rate; bare INR amounts without a unit are treated as rupees.
func toCrore(value float64, currency, unit string) float64 {
	inr := value
	if currency == "$" || currency == "usd" {
		inr = value * usdToINR
	}

	switch unit {
	case "crore", "cr":
		return inr
	case "lakh":
		return inr * 0.01
	case "million", "mn":
		return inr * 0.1 // 1 crore = 10 million
	case "billion", "bn":
		return inr * 100
	default:
		// Raw rupee amount
		return inr / 1e7
	}
}

// Magnitude returns the largest realized (non-conditional) figure in crore,
// or 0 when none was confidently parsed.
func Magnitude(figures []Figure) float64 {
	largest := 0.0
	for _, f := range figures {
		if !f.Conditional && f.Crore > largest {
			largest = f.Crore
		}
	}
	return largest
}

// OnlyConditional reports whether every parsed figure is forward-looking.
func OnlyConditional(figures []Figure) bool {
	if len(figures) == 0 {
		return false
	}
	for _, f := range figures {
		if !f.Conditional {
			return false
		}
	}
	return true
}
