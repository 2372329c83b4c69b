// Package blend combines the news-driven heuristic score with the
// quantitative alpha overlay and ranks the results against the
// qualification thresholds.
package blend

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

// Blender folds the quant alpha into the verdict score. The alpha weight
// comes from config and is clamped so the news signal always dominates.
type Blender struct {
	weight float64
	logger arbor.ILogger
}

// NewBlender creates a blender with the configured alpha weight, clamped
// to the configured maximum.
func NewBlender(config *common.BlendConfig, logger arbor.ILogger) *Blender {
	weight := config.AlphaWeight
	if weight > config.MaxAlphaWeight {
		weight = config.MaxAlphaWeight
	}
	if weight < 0 {
		weight = 0
	}
	return &Blender{weight: weight, logger: logger}
}

// Blend computes the final score for a sealed ticker context. When no
// alpha is available the verdict score passes through unchanged and the
// sub-scores record that the overlay was skipped.
func (b *Blender) Blend(tc *models.TickerContext, alpha float64, alphaOK bool) models.SubScores {
	sub := models.SubScores{
		Certainty: tc.Certainty,
	}
	if tc.Verdict != nil {
		sub.Heuristic = tc.Verdict.Score
	}

	if alphaOK {
		sub.QuantAlpha = alpha
		sub.AlphaWeight = b.weight
		sub.AlphaApplied = true
	}

	if b.logger != nil && alphaOK {
		b.logger.Debug().
			Str("ticker", tc.Ticker.String()).
			Float64("heuristic", sub.Heuristic).
			Float64("alpha", alpha).
			Float64("weight", b.weight).
			Msg("Alpha overlay applied")
	}

	return sub
}

// FinalScore evaluates the blend from recorded sub-scores.
func FinalScore(sub models.SubScores) float64 {
	if !sub.AlphaApplied {
		return sub.Heuristic
	}
	return sub.Heuristic*(1-sub.AlphaWeight) + sub.QuantAlpha*sub.AlphaWeight
}
