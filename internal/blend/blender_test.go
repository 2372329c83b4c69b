package blend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

func finalizedContext(t *testing.T, verdictScore float64) *models.TickerContext {
	t.Helper()
	tc := models.NewTickerContext(common.ParseTicker("NSE:INFY"), []string{"Infosys"})
	tc.AddArticle(&models.ArticleRecord{ID: "a", Headline: "Infosys wins deal"})
	tc.Certainty = 70
	tc.Magnitude = 650
	tc.Verdict = &models.Verdict{Score: verdictScore, Sentiment: models.SentimentBullish, Source: models.VerdictSourceHeuristic}
	tc.Finalize()
	return tc
}

func TestBlendWithAlpha(t *testing.T) {
	b := NewBlender(&common.BlendConfig{AlphaWeight: 0.10, MaxAlphaWeight: 0.30}, common.GetLogger())
	tc := finalizedContext(t, 80)

	sub := b.Blend(tc, 60, true)

	assert.True(t, sub.AlphaApplied)
	assert.Equal(t, 0.10, sub.AlphaWeight)
	assert.InDelta(t, 80*0.9+60*0.1, FinalScore(sub), 0.0001)
}

func TestBlendWithoutAlpha(t *testing.T) {
	b := NewBlender(&common.BlendConfig{AlphaWeight: 0.10, MaxAlphaWeight: 0.30}, common.GetLogger())
	tc := finalizedContext(t, 55)

	sub := b.Blend(tc, 0, false)

	// No alpha available: the verdict score passes through unchanged
	assert.False(t, sub.AlphaApplied)
	assert.Equal(t, 55.0, FinalScore(sub))
}

func TestBlendWeightClamped(t *testing.T) {
	b := NewBlender(&common.BlendConfig{AlphaWeight: 0.50, MaxAlphaWeight: 0.30}, common.GetLogger())
	tc := finalizedContext(t, 80)

	sub := b.Blend(tc, 40, true)

	assert.Equal(t, 0.30, sub.AlphaWeight)
	assert.InDelta(t, 80*0.7+40*0.3, FinalScore(sub), 0.0001)
}

func TestFinalScoreMatchesRecompute(t *testing.T) {
	// The recorded sub-scores must reproduce the final score exactly
	sub := models.SubScores{Heuristic: 72, QuantAlpha: 55, AlphaWeight: 0.10, AlphaApplied: true}
	candidate := models.RankedCandidate{FinalScore: FinalScore(sub), SubScores: sub}
	assert.Equal(t, candidate.FinalScore, candidate.Recompute())

	sub = models.SubScores{Heuristic: 72}
	candidate = models.RankedCandidate{FinalScore: FinalScore(sub), SubScores: sub}
	assert.Equal(t, candidate.FinalScore, candidate.Recompute())
}
