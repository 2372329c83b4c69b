// -----------------------------------------------------------------------
// Quality Filter - rejects roundups, speculation, and vague coverage
// before anything reaches the scorer
// -----------------------------------------------------------------------

package filter

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
	"github.com/ternarybob/catalyst/internal/resolve"
)

// Rejection reasons emitted by the filter. These strings appear verbatim
// in the rejected output set.
const (
	ReasonRoundup     = resolve.ReasonRoundup
	ReasonSpeculative = "speculative or upcoming event"
	ReasonVague       = "insufficient specificity"
	ReasonWeakAnchor  = "weak entity anchor"
)

// Outcome is the filter's decision for one article.
type Outcome struct {
	Accepted bool
	Reason   string // Empty when accepted
}

// QualityFilter applies the ordered rejection rules.
type QualityFilter struct {
	anchorWindow int
	logger       arbor.ILogger
}

// NewQualityFilter creates a filter; anchorWindow is the number of leading
// characters of headline+lead searched for the entity anchor.
func NewQualityFilter(anchorWindow int, logger arbor.ILogger) *QualityFilter {
	if anchorWindow <= 0 {
		anchorWindow = 120
	}
	return &QualityFilter{
		anchorWindow: anchorWindow,
		logger:       logger,
	}
}

var (
	speculativeRe = regexp.MustCompile(`(?i)\b(?:this week|next week|next quarter|will announce|expected to|likely to|may|might|could|plans? to|set to|to consider|reportedly|rumou?red?)\b`)

	confirmedActionRe = regexp.MustCompile(`(?i)\b(?:reports?|reported|announces?|announced|signs?|signed|completes?|completed|approves?|approved|posts?|posted|declares?|declared|acquires?|acquired|launches?|launched|wins?|won|secures?|secured|bags?|bagged|receives?|received|commissions?|commissioned)\b`)

	numericFigureRe = regexp.MustCompile(`(?i)(?:₹|rs\.?\s?|inr\s?|\$|usd\s?)\s?\d[\d,]*(?:\.\d+)?|\d[\d,]*(?:\.\d+)?\s*(?:%|crore|cr\b|lakh|million|billion|mn\b|bn\b|units|mw\b|tonnes)`)
)

// Check evaluates the rules in order and returns the first rejection, or
// acceptance when every rule passes. Rejection is a normal, logged outcome,
// not an error.
func (f *QualityFilter) Check(article *models.ArticleRecord, ticker common.Ticker, aliases []string) Outcome {
	text := article.Text()

	// Rule 1: multi-company roundup
	if _, ok := resolve.DetectRoundup(text); ok {
		return f.reject(article, ReasonRoundup)
	}

	// Rule 2: forward-looking language with no confirmed action to anchor it
	if speculativeRe.MatchString(text) && !confirmedActionRe.MatchString(text) {
		return f.reject(article, ReasonSpeculative)
	}

	// Rule 3: neither a specific figure nor a confirmed-action verb
	if !numericFigureRe.MatchString(text) && !confirmedActionRe.MatchString(text) {
		return f.reject(article, ReasonVague)
	}

	// Rule 4: entity must anchor the opening of the piece
	lead := article.Lead(f.anchorWindow)
	if !anchorPresent(lead, ticker.Code, aliases) {
		return f.reject(article, ReasonWeakAnchor)
	}

	return Outcome{Accepted: true}
}

// reject logs and returns a rejection outcome.
func (f *QualityFilter) reject(article *models.ArticleRecord, reason string) Outcome {
	f.logger.Debug().
		Str("url", article.SourceURL).
		Str("reason", reason).
		Msg("Article rejected by quality filter")
	return Outcome{Accepted: false, Reason: reason}
}

// anchorPresent checks for the ticker code or any alias fragment within
// the lead window.
func anchorPresent(lead, code string, aliases []string) bool {
	lower := strings.ToLower(lead)

	if len(code) >= 2 && strings.Contains(strings.ToUpper(lead), strings.ToUpper(code)) {
		return true
	}

	for _, alias := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			continue
		}
		if strings.Contains(lower, alias) {
			return true
		}
		// First significant word of the alias is enough of an anchor
		if fields := strings.Fields(alias); len(fields) > 0 && len(fields[0]) >= 4 {
			if strings.Contains(lower, fields[0]) {
				return true
			}
		}
	}
	return false
}
