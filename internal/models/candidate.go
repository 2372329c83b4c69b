package models

import (
	"time"
)

// Recommendation labels emitted in the ranked output.
const (
	RecommendationStrongBuy = "STRONG BUY"
	RecommendationBuy       = "BUY"
	RecommendationWatch     = "WATCH"
	RecommendationAvoid     = "AVOID"
	RecommendationSkip      = "SKIP"
)

// SubScores preserves every input to the blended final score so a reader
// can reproduce it without rerunning the pipeline.
type SubScores struct {
	Heuristic    float64 `json:"heuristic"` // AI or heuristic verdict score, 0-100
	Certainty    float64 `json:"certainty"`
	QuantAlpha   float64 `json:"quant_alpha"`
	AlphaWeight  float64 `json:"alpha_weight"`
	AlphaApplied bool    `json:"alpha_applied"`
}

// RankedCandidate is the final output unit, produced one-to-one from a
// finalized TickerContext and never mutated afterward.
type RankedCandidate struct {
	Ticker          string    `json:"ticker"`
	FinalScore      float64   `json:"final_score"`
	Certainty       float64   `json:"certainty"`
	Magnitude       float64   `json:"magnitude"`
	Sentiment       string    `json:"sentiment"`
	Recommendation  string    `json:"recommendation"`
	CatalystTags    []string  `json:"catalyst_tags,omitempty"`
	Qualified       bool      `json:"qualified"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	SubScores       SubScores `json:"sub_scores"`
	Headline        string    `json:"headline,omitempty"`
	Reasoning       string    `json:"reasoning,omitempty"`
	Published       time.Time `json:"published,omitempty"`
	AIFallback      bool      `json:"ai_fallback"`
}

// Recompute rebuilds the final score from the recorded sub-scores. The
// result must equal FinalScore for any candidate the ranker emits.
func (rc *RankedCandidate) Recompute() float64 {
	if !rc.SubScores.AlphaApplied {
		return rc.SubScores.Heuristic
	}
	w := rc.SubScores.AlphaWeight
	return rc.SubScores.Heuristic*(1-w) + rc.SubScores.QuantAlpha*w
}

// RecommendationLabel maps a final score and sentiment to an output label.
func RecommendationLabel(score float64, sentiment string) string {
	if sentiment == SentimentBearish {
		return RecommendationAvoid
	}
	switch {
	case score >= 75:
		return RecommendationStrongBuy
	case score >= 60:
		return RecommendationBuy
	case score >= 45:
		return RecommendationWatch
	default:
		return RecommendationSkip
	}
}
