package score

import (
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/catalyst/internal/models"
)

// Catalyst categories recognized by the scorer. Each category carries its
// own confirmed-action vocabulary; a distinct category hit is worth more
// than repeated verbs from the same one.
const (
	CategoryEarnings      = "earnings"
	CategoryContract      = "order-contract"
	CategoryApproval      = "approval"
	CategoryMergerAcq     = "merger-acquisition"
	CategoryCapitalReturn = "capital-return"
	CategoryExpansion     = "expansion"
)

// Both tenses of each action verb count: wire headlines report confirmed
// events in the simple present ("Company X reports profit...") as often as
// in the past.
var categoryPatterns = map[string]*regexp.Regexp{
	CategoryEarnings:      regexp.MustCompile(`(?i)\b(?:reports?|reported|posts?|posted|declares?|declared)\b.{0,60}\b(?:profit|revenue|net income|ebitda|earnings)\b`),
	CategoryContract:      regexp.MustCompile(`(?i)\b(?:wins?|won|secures?|secured|bags?|bagged|signs?|signed|receives?|received)\b.{0,60}\b(?:order|contract|deal|mandate|loi)\b`),
	CategoryApproval:      regexp.MustCompile(`(?i)\b(?:approves?|approved|receives?|received|grants?|granted|clears?|cleared)\b.{0,60}\b(?:approval|licen[cs]e|clearance|nod|patent)\b`),
	CategoryMergerAcq:     regexp.MustCompile(`(?i)\b(?:acquires?|acquired|completes?|completed|announces?|announced)\b.{0,60}\b(?:acquisition|merger|stake|takeover)\b`),
	CategoryCapitalReturn: regexp.MustCompile(`(?i)\b(?:announces?|announced|declares?|declared|approves?|approved)\b.{0,60}\b(?:dividend|buyback|bonus issue|split)\b`),
	CategoryExpansion:     regexp.MustCompile(`(?i)\b(?:commissions?|commissioned|launches?|launched|opens?|opened|completes?|completed|inaugurates?|inaugurated)\b.{0,60}\b(?:plant|facility|capacity|expansion|unit)\b`),
}

var (
	speculativeTokenRe = regexp.MustCompile(`(?i)\b(?:may|might|could|expected to|likely to|plans? to|reportedly|rumou?red?|set to|in talks)\b`)
	distinctFigureRe   = regexp.MustCompile(`(?i)(?:₹|rs\.?\s?|inr\s?|\$|usd\s?)\s?\d[\d,]*(?:\.\d+)?(?:\s*(?:crore|cr\b|lakh|million|billion|mn\b|bn\b))?|\d[\d,]*(?:\.\d+)?\s*(?:%|crore|cr\b|lakh|million|billion|mn\b|bn\b|units|mw\b|tonnes)`)
)

// Features are the aggregate scoring inputs for one ticker's accepted
// articles. The rules in rules.go read nothing else, which keeps every
// bonus auditable.
type Features struct {
	Categories        map[string]bool
	DistinctFigures   int
	ExtraSources      int // Independent corroborating sources beyond the first
	PremiumSource     bool
	RecentWithin24h   bool
	SpeculativeTokens int
	HeadlineOnly      bool // Every surviving article was headline-only
	Figures           []Figure
}

// CategoryTags returns the hit categories as a sorted-stable tag list.
func (f *Features) CategoryTags() []string {
	ordered := []string{
		CategoryEarnings, CategoryContract, CategoryApproval,
		CategoryMergerAcq, CategoryCapitalReturn, CategoryExpansion,
	}
	var tags []string
	for _, c := range ordered {
		if f.Categories[c] {
			tags = append(tags, c)
		}
	}
	return tags
}

// ExtractFeatures aggregates scoring features across accepted articles.
func ExtractFeatures(articles []*models.ArticleRecord, premiumDomains map[string]bool, now time.Time) *Features {
	f := &Features{
		Categories:   make(map[string]bool),
		HeadlineOnly: len(articles) > 0,
	}

	domains := make(map[string]bool)
	figures := make(map[string]bool)
	duplicates := 0

	for _, a := range articles {
		text := a.Text()

		for category, pattern := range categoryPatterns {
			if pattern.MatchString(text) {
				f.Categories[category] = true
			}
		}

		for _, m := range distinctFigureRe.FindAllString(text, -1) {
			figures[strings.ToLower(strings.Join(strings.Fields(m), " "))] = true
		}

		f.SpeculativeTokens += len(speculativeTokenRe.FindAllString(text, -1))
		f.Figures = append(f.Figures, ParseFigures(text)...)

		if a.Domain != "" {
			domains[a.Domain] = true
		}
		duplicates += a.DuplicateCount

		if premiumDomains[a.Domain] || a.Premium {
			f.PremiumSource = true
		}
		if !a.Published.IsZero() && now.Sub(a.Published) < 24*time.Hour {
			f.RecentWithin24h = true
		}
		if !a.HeadlineOnly {
			f.HeadlineOnly = false
		}
	}

	f.DistinctFigures = len(figures)

	// Corroboration: each extra independent domain plus each folded
	// near-duplicate counts as one more source for the same event
	if len(domains) > 1 {
		f.ExtraSources = len(domains) - 1
	}
	f.ExtraSources += duplicates

	return f
}
