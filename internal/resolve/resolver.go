// -----------------------------------------------------------------------
// Entity Resolver - maps article text to a canonical ticker with a
// confidence level, rejecting roundups and ambiguous matches
// -----------------------------------------------------------------------

package resolve

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

// ReasonRoundup is the rejection reason recorded for multi-company
// roundup articles, whether the resolver or the quality filter catches
// them. The rejected output set carries it verbatim.
const ReasonRoundup = "generic industry roundup"

// Resolution is the outcome of matching an article to a ticker.
type Resolution struct {
	Confidence models.Confidence
	Reason     string
}

// Resolver decides whether an article is actually about a ticker's company.
type Resolver struct {
	logger arbor.ILogger
}

// NewResolver creates an entity resolver.
func NewResolver(logger arbor.ILogger) *Resolver {
	return &Resolver{logger: logger}
}

var (
	// Enumeration patterns that mark market-wide roundups. Their causal
	// attribution to any single ticker is unreliable, so they are rejected
	// even on an exact symbol match.
	roundupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+\s+of\s+(?:the\s+)?top[-\s]?\d+\b`),
		regexp.MustCompile(`(?i)\btop\s+\d+\s+(?:stocks|firms|companies|gainers|losers)\b`),
		regexp.MustCompile(`(?i)\bstocks\s+to\s+(?:watch|buy|track)\b`),
		regexp.MustCompile(`(?i)\b(?:sensex|nifty|market)\s+(?:roundup|wrap|recap|highlights)\b`),
		regexp.MustCompile(`(?i)\bm-?cap\s+of\s+\d+\b`),
	}

	// Corroborating evidence required before a weak name match is accepted
	numericEvidenceRe = regexp.MustCompile(`(?i)(?:₹|rs\.?\s?|inr\s?|\$|usd\s?)?\d[\d,]*(?:\.\d+)?\s*(?:%|crore|cr\b|lakh|million|billion|mn\b|bn\b)`)
	actionEvidenceRe  = regexp.MustCompile(`(?i)\b(?:reports?|reported|announces?|announced|signs?|signed|completes?|completed|approves?|approved|acquires?|acquired|launches?|launched|wins?|won|secures?|secured|bags?|bagged)\b`)
)

// Resolve determines whether the article belongs to the ticker. Roundup
// detection runs first and always rejects; then symbol, alias, and weak
// matches are tried in order of decreasing confidence.
func (r *Resolver) Resolve(ticker common.Ticker, aliases []string, headline, body string) Resolution {
	text := headline
	if body != "" {
		text = headline + "\n" + body
	}

	if reason, ok := DetectRoundup(text); ok {
		return Resolution{Confidence: models.ConfidenceNone, Reason: reason}
	}

	if hasSymbolToken(headline, ticker.Code) {
		return Resolution{Confidence: models.ConfidenceHigh, Reason: "ticker symbol in headline"}
	}

	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		if containsWord(headline, alias) || containsWord(body, alias) {
			return Resolution{Confidence: models.ConfidenceMedium, Reason: "company name match"}
		}
	}

	// Weak signals: partial name fragments need corroborating numeric or
	// action-word evidence before they count at all
	if matchesPartialAlias(text, aliases) {
		if numericEvidenceRe.MatchString(text) || actionEvidenceRe.MatchString(text) {
			return Resolution{Confidence: models.ConfidenceLow, Reason: "partial name with corroborating evidence"}
		}
		return Resolution{Confidence: models.ConfidenceNone, Reason: "partial name without corroboration"}
	}

	return Resolution{Confidence: models.ConfidenceNone, Reason: "no entity match"}
}

// DetectRoundup flags multi-company roundup articles. The quality filter
// reuses it for its first rejection rule.
func DetectRoundup(text string) (string, bool) {
	for _, pattern := range roundupPatterns {
		if pattern.MatchString(text) {
			return ReasonRoundup, true
		}
	}

	// A long comma-separated run of capitalized names is an enumeration,
	// typical of sector wrap pieces
	if countEnumeratedNames(text) >= 4 {
		return ReasonRoundup, true
	}

	return "", false
}

// countEnumeratedNames counts capitalized comma-separated terms in the
// first sentence, a cheap proxy for "A, B, C, D and E gained today".
func countEnumeratedNames(text string) int {
	firstLine := text
	if idx := strings.IndexAny(text, ".\n"); idx > 0 {
		firstLine = text[:idx]
	}

	count := 0
	for _, part := range strings.Split(firstLine, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		first := part[0]
		if first >= 'A' && first <= 'Z' && len(strings.Fields(part)) <= 3 {
			count++
		}
	}
	return count
}

// hasSymbolToken checks for the ticker code as a standalone token. Codes
// shorter than two characters are ignored, they collide with ordinary words.
func hasSymbolToken(text, code string) bool {
	if len(code) < 2 {
		return false
	}
	upper := strings.ToUpper(text)
	idx := 0
	for {
		pos := strings.Index(upper[idx:], code)
		if pos < 0 {
			return false
		}
		pos += idx
		before := pos == 0 || !isAlnum(upper[pos-1])
		afterIdx := pos + len(code)
		after := afterIdx >= len(upper) || !isAlnum(upper[afterIdx])
		if before && after {
			return true
		}
		idx = pos + len(code)
	}
}

func isAlnum(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// containsWord performs a case-insensitive whole-phrase match.
func containsWord(text, phrase string) bool {
	if text == "" || phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}

// matchesPartialAlias checks whether any significant word of an alias
// appears in the text (e.g., "Infosys" from "Infosys Limited").
func matchesPartialAlias(text string, aliases []string) bool {
	lower := strings.ToLower(text)
	for _, alias := range aliases {
		for _, word := range strings.Fields(strings.ToLower(alias)) {
			if len(word) >= 5 && word != "limited" && word != "industries" && strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}
