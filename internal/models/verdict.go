package models

// VerdictSource identifies how a verdict was produced.
type VerdictSource string

const (
	// VerdictSourceAI marks verdicts returned by an AI provider
	VerdictSourceAI VerdictSource = "ai"
	// VerdictSourceHeuristic marks verdicts from the rule-based fallback
	VerdictSourceHeuristic VerdictSource = "heuristic"
)

// Sentiment labels used in verdicts and output records.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// Verdict is the structured response of the analysis stage, whether it came
// from an AI provider or the heuristic fallback. Every field is validated
// before the verdict is trusted; a malformed provider response is a bridge
// failure, not a pipeline error.
type Verdict struct {
	Score        float64       `json:"score"`     // 0-100
	Sentiment    string        `json:"sentiment"` // bullish|bearish|neutral
	CatalystTags []string      `json:"catalyst_tags"`
	Certainty    float64       `json:"certainty"` // 0-100
	Reasoning    string        `json:"reasoning"`
	Source       VerdictSource `json:"source"`
}

// ValidSentiment reports whether s is one of the accepted sentiment labels.
func ValidSentiment(s string) bool {
	switch s {
	case SentimentBullish, SentimentBearish, SentimentNeutral:
		return true
	}
	return false
}
