package models

import (
	"time"

	"github.com/ternarybob/catalyst/internal/common"
)

// TickerContext is the working unit per equity symbol. It is created once
// per ticker per run, accumulates articles as they resolve, and becomes
// immutable once the ranker consumes it.
type TickerContext struct {
	Ticker   common.Ticker    `json:"ticker"`
	Aliases  []string         `json:"aliases,omitempty"` // Canonical company name plus known aliases
	Articles []*ArticleRecord `json:"articles"`

	Certainty    float64  `json:"certainty"` // 0-100
	Magnitude    float64  `json:"magnitude"` // Crore, >= 0
	Sentiment    string   `json:"sentiment"`
	CatalystTags []string `json:"catalyst_tags,omitempty"`

	Verdict *Verdict `json:"verdict,omitempty"`

	FakeRally         bool   `json:"fake_rally"`         // Magnitude not backed by realized, corroborated facts
	AIFallback        bool   `json:"ai_fallback"`        // AI bridge failed or budget exhausted, heuristic verdict used
	ReducedConfidence bool   `json:"reduced_confidence"` // Market data unavailable, magnitude-vs-cap scoring degraded
	RejectionReason   string `json:"rejection_reason,omitempty"`

	finalized bool
}

// NewTickerContext creates the per-ticker working record.
func NewTickerContext(ticker common.Ticker, aliases []string) *TickerContext {
	return &TickerContext{
		Ticker:    ticker,
		Aliases:   aliases,
		Sentiment: SentimentNeutral,
	}
}

// AddArticle appends a resolved article. Panics if called after Finalize,
// which would break the immutability handoff to the ranker.
func (tc *TickerContext) AddArticle(a *ArticleRecord) {
	if tc.finalized {
		panic("AddArticle on finalized TickerContext")
	}
	tc.Articles = append(tc.Articles, a)
}

// SurvivingArticles returns articles that passed resolution, dedup, and the
// quality filter.
func (tc *TickerContext) SurvivingArticles() []*ArticleRecord {
	var out []*ArticleRecord
	for _, a := range tc.Articles {
		if !a.Rejected && a.DuplicateOf == "" {
			out = append(out, a)
		}
	}
	return out
}

// RepresentativeArticle returns the surviving article with the most recent
// publication timestamp, or nil when nothing survived.
func (tc *TickerContext) RepresentativeArticle() *ArticleRecord {
	var best *ArticleRecord
	for _, a := range tc.SurvivingArticles() {
		if best == nil || a.Published.After(best.Published) {
			best = a
		}
	}
	return best
}

// LatestPublished returns the most recent publication time across surviving
// articles, used as a ranking tie-breaker.
func (tc *TickerContext) LatestPublished() time.Time {
	if a := tc.RepresentativeArticle(); a != nil {
		return a.Published
	}
	return time.Time{}
}

// Finalize seals the context after scoring and blending. A context with no
// surviving articles is rejected here so it can never qualify.
func (tc *TickerContext) Finalize() {
	if len(tc.SurvivingArticles()) == 0 && tc.RejectionReason == "" {
		tc.RejectionReason = "no qualifying news"
	}
	tc.finalized = true
}

// Finalized reports whether the context has been sealed.
func (tc *TickerContext) Finalized() bool {
	return tc.finalized
}
