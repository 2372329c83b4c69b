package blend

import (
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

// Ranker rejection reasons for candidates that carried news but missed a
// qualification floor.
const (
	ReasonLowCertainty = "certainty below threshold"
	ReasonLowMagnitude = "magnitude below threshold"
)

// Entry pairs a sealed ticker context with its recorded sub-scores.
type Entry struct {
	Context *models.TickerContext
	Sub     models.SubScores
}

// Ranking is the complete run output: every input ticker appears in
// exactly one of the two lists.
type Ranking struct {
	Qualified []models.RankedCandidate
	Rejected  []models.RankedCandidate
}

// Ranker applies the qualification thresholds and orders candidates.
type Ranker struct {
	minCertainty float64
	minMagnitude float64
	logger       arbor.ILogger
}

// NewRanker creates a ranker with the configured thresholds.
func NewRanker(config *common.RankConfig, logger arbor.ILogger) *Ranker {
	return &Ranker{
		minCertainty: config.MinCertainty,
		minMagnitude: config.MinMagnitude,
		logger:       logger,
	}
}

// Rank partitions entries into qualified and rejected candidates and sorts
// the qualified list by final score descending, breaking ties by certainty
// and then by most recent publication. Every entry must be finalized.
func (r *Ranker) Rank(entries []Entry) Ranking {
	var ranking Ranking

	for _, e := range entries {
		tc := e.Context
		if !tc.Finalized() {
			panic("Rank on non-finalized TickerContext")
		}

		candidate := buildCandidate(tc, e.Sub)

		switch {
		case tc.RejectionReason != "":
			candidate.RejectionReason = tc.RejectionReason
		case tc.Certainty < r.minCertainty:
			candidate.RejectionReason = ReasonLowCertainty
		case tc.Magnitude < r.minMagnitude:
			candidate.RejectionReason = ReasonLowMagnitude
		default:
			candidate.Qualified = true
		}

		if candidate.Qualified {
			ranking.Qualified = append(ranking.Qualified, candidate)
		} else {
			ranking.Rejected = append(ranking.Rejected, candidate)
		}
	}

	sortCandidates(ranking.Qualified)
	sortCandidates(ranking.Rejected)

	if r.logger != nil {
		r.logger.Info().
			Int("qualified", len(ranking.Qualified)).
			Int("rejected", len(ranking.Rejected)).
			Msg("Ranking complete")
	}

	return ranking
}

func buildCandidate(tc *models.TickerContext, sub models.SubScores) models.RankedCandidate {
	candidate := models.RankedCandidate{
		Ticker:       tc.Ticker.String(),
		FinalScore:   FinalScore(sub),
		Certainty:    tc.Certainty,
		Magnitude:    tc.Magnitude,
		Sentiment:    tc.Sentiment,
		CatalystTags: tc.CatalystTags,
		SubScores:    sub,
		Published:    tc.LatestPublished(),
		AIFallback:   tc.AIFallback,
	}
	candidate.Recommendation = models.RecommendationLabel(candidate.FinalScore, candidate.Sentiment)
	if rep := tc.RepresentativeArticle(); rep != nil {
		candidate.Headline = rep.Headline
	}
	if tc.Verdict != nil {
		candidate.Reasoning = tc.Verdict.Reasoning
	}
	return candidate
}

func sortCandidates(candidates []models.RankedCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.Certainty != b.Certainty {
			return a.Certainty > b.Certainty
		}
		return a.Published.After(b.Published)
	})
}
