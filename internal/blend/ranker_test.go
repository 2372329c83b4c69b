package blend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

func entryFor(ticker string, certainty, magnitude, verdictScore float64, published time.Time) Entry {
	tc := models.NewTickerContext(common.ParseTicker(ticker), nil)
	tc.AddArticle(&models.ArticleRecord{
		ID:        "art-" + ticker,
		Headline:  ticker + " headline",
		Published: published,
	})
	tc.Certainty = certainty
	tc.Magnitude = magnitude
	tc.Sentiment = models.SentimentBullish
	tc.Verdict = &models.Verdict{Score: verdictScore, Sentiment: models.SentimentBullish, Source: models.VerdictSourceHeuristic}
	tc.Finalize()
	return Entry{Context: tc, Sub: models.SubScores{Heuristic: verdictScore, Certainty: certainty}}
}

func emptyEntry(ticker string) Entry {
	tc := models.NewTickerContext(common.ParseTicker(ticker), nil)
	tc.Finalize()
	return Entry{Context: tc}
}

func newTestRanker() *Ranker {
	return NewRanker(&common.RankConfig{MinCertainty: 40, MinMagnitude: 1.0}, common.GetLogger())
}

func TestRankPartitionsAndSorts(t *testing.T) {
	now := time.Now()
	r := newTestRanker()

	ranking := r.Rank([]Entry{
		entryFor("NSE:INFY", 70, 650, 80, now),
		entryFor("NSE:TCS", 65, 200, 85, now),
		entryFor("NSE:WIPRO", 30, 100, 45, now), // below certainty floor
		emptyEntry("NSE:IDEA"),                  // nothing survived
	})

	require.Len(t, ranking.Qualified, 2)
	require.Len(t, ranking.Rejected, 2)

	// Sorted descending by final score
	assert.Equal(t, "NSE:TCS", ranking.Qualified[0].Ticker)
	assert.Equal(t, "NSE:INFY", ranking.Qualified[1].Ticker)

	reasons := map[string]string{}
	for _, c := range ranking.Rejected {
		reasons[c.Ticker] = c.RejectionReason
	}
	assert.Equal(t, ReasonLowCertainty, reasons["NSE:WIPRO"])
	assert.Equal(t, "no qualifying news", reasons["NSE:IDEA"])
}

func TestRankRejectsLowCertaintyWithReason(t *testing.T) {
	now := time.Now()
	r := newTestRanker()

	// A ticker whose only article was a speculative piece scores low and
	// must appear in the rejected set with the certainty reason, never
	// silently dropped
	ranking := r.Rank([]Entry{entryFor("NSE:SUZLON", 25, 5000, 30, now)})

	require.Empty(t, ranking.Qualified)
	require.Len(t, ranking.Rejected, 1)
	assert.Equal(t, ReasonLowCertainty, ranking.Rejected[0].RejectionReason)
	assert.False(t, ranking.Rejected[0].Qualified)
}

func TestRankRejectsLowMagnitude(t *testing.T) {
	now := time.Now()
	r := newTestRanker()

	ranking := r.Rank([]Entry{entryFor("NSE:INFY", 70, 0.5, 80, now)})

	require.Len(t, ranking.Rejected, 1)
	assert.Equal(t, ReasonLowMagnitude, ranking.Rejected[0].RejectionReason)
}

func TestRankTieBreaking(t *testing.T) {
	now := time.Now()
	r := newTestRanker()

	// Same final score: higher certainty first
	a := entryFor("NSE:AAA", 80, 100, 70, now.Add(-2*time.Hour))
	b := entryFor("NSE:BBB", 60, 100, 70, now.Add(-1*time.Hour))
	ranking := r.Rank([]Entry{b, a})
	assert.Equal(t, "NSE:AAA", ranking.Qualified[0].Ticker)

	// Same score and certainty: more recent publication first
	c := entryFor("NSE:CCC", 60, 100, 70, now.Add(-30*time.Minute))
	d := entryFor("NSE:DDD", 60, 100, 70, now.Add(-5*time.Hour))
	ranking = r.Rank([]Entry{d, c})
	assert.Equal(t, "NSE:CCC", ranking.Qualified[0].Ticker)
}

func TestRankCompleteness(t *testing.T) {
	now := time.Now()
	r := newTestRanker()

	input := []Entry{
		entryFor("NSE:INFY", 70, 650, 80, now),
		entryFor("NSE:WIPRO", 10, 10, 20, now),
		emptyEntry("NSE:IDEA"),
	}
	ranking := r.Rank(input)

	// Union of both partitions covers every input ticker
	seen := map[string]bool{}
	for _, c := range ranking.Qualified {
		seen[c.Ticker] = true
	}
	for _, c := range ranking.Rejected {
		seen[c.Ticker] = true
	}
	assert.Len(t, seen, len(input))
	for _, e := range input {
		assert.True(t, seen[e.Context.Ticker.String()], "ticker %s missing from output", e.Context.Ticker)
	}
}

func TestRankRecommendationLabels(t *testing.T) {
	assert.Equal(t, models.RecommendationStrongBuy, models.RecommendationLabel(80, models.SentimentBullish))
	assert.Equal(t, models.RecommendationBuy, models.RecommendationLabel(65, models.SentimentNeutral))
	assert.Equal(t, models.RecommendationWatch, models.RecommendationLabel(50, models.SentimentBullish))
	assert.Equal(t, models.RecommendationSkip, models.RecommendationLabel(30, models.SentimentNeutral))
	assert.Equal(t, models.RecommendationAvoid, models.RecommendationLabel(90, models.SentimentBearish))
}
