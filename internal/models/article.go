package models

import (
	"net/url"
	"strings"
	"time"
)

// ExtractionStrategy identifies which extractor produced the article body.
type ExtractionStrategy string

const (
	StrategyStructured  ExtractionStrategy = "structured"
	StrategyReadability ExtractionStrategy = "readability"
	StrategyMarkdown    ExtractionStrategy = "markdown"
	StrategyNone        ExtractionStrategy = ""
)

// ArticleRecord is one fetched news item. It is created by the fetch
// scheduler, enriched by the extraction engine, and accumulates stage
// outcomes as it moves down the pipeline. Later stages mark it rejected
// rather than dropping it, so the full audit trail survives to the output.
type ArticleRecord struct {
	ID           string             `json:"id"`
	SourceURL    string             `json:"source_url"`
	CanonicalURL string             `json:"canonical_url,omitempty"`
	AlternateURL string             `json:"alternate_url,omitempty"`
	Domain       string             `json:"domain"`
	Headline     string             `json:"headline"`
	Published    time.Time          `json:"published"`
	Fetched      time.Time          `json:"fetched"`
	Body         string             `json:"body,omitempty"`
	Strategy     ExtractionStrategy `json:"strategy,omitempty"`
	BodyLength   int                `json:"body_length"`
	HeadlineOnly bool               `json:"headline_only"` // Extraction failed, scoring degraded to headline evidence

	// Source metadata from the registry
	SourceName string `json:"source_name"`
	Premium    bool   `json:"premium"` // High-credibility source domain

	// Stage outcomes
	ResolutionConfidence Confidence `json:"resolution_confidence"`
	DuplicateOf          string     `json:"duplicate_of,omitempty"` // ID of the earliest-seen near-duplicate
	DuplicateCount       int        `json:"duplicate_count"`        // Near-duplicates folded into this record
	Rejected             bool       `json:"rejected"`
	RejectionReason      string     `json:"rejection_reason,omitempty"`
}

// Confidence is the entity-resolution confidence level.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the confidence label.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// Reject marks the article rejected with a reason. The record is kept for
// audit output, never discarded.
func (a *ArticleRecord) Reject(reason string) {
	a.Rejected = true
	a.RejectionReason = reason
}

// Lead returns the headline joined with the opening of the body, used for
// entity-anchor checks.
func (a *ArticleRecord) Lead(window int) string {
	lead := a.Headline
	if a.Body != "" {
		lead = lead + ". " + a.Body
	}
	if window > 0 && len(lead) > window {
		return lead[:window]
	}
	return lead
}

// Text returns headline plus body for keyword scans.
func (a *ArticleRecord) Text() string {
	if a.Body == "" {
		return a.Headline
	}
	return a.Headline + "\n" + a.Body
}

// SetDomain derives the publisher domain from the source URL.
func (a *ArticleRecord) SetDomain() {
	u, err := url.Parse(a.SourceURL)
	if err != nil {
		return
	}
	a.Domain = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
