package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/models"
)

// WriteReports writes the qualified and rejected candidate sets to
// separate CSV files so the two are never mixed in one ranked table.
func WriteReports(outputDir string, result *Result, logger arbor.ILogger) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	qualifiedPath := filepath.Join(outputDir, "qualified.csv")
	if err := writeCandidates(qualifiedPath, result.Qualified); err != nil {
		return fmt.Errorf("failed to write qualified report: %w", err)
	}

	rejectedPath := filepath.Join(outputDir, "rejected.csv")
	if err := writeCandidates(rejectedPath, result.Rejected); err != nil {
		return fmt.Errorf("failed to write rejected report: %w", err)
	}

	logger.Info().
		Str("qualified", qualifiedPath).
		Str("rejected", rejectedPath).
		Msg("Reports written")

	for i, c := range result.Qualified {
		logger.Info().
			Int("rank", i+1).
			Str("ticker", c.Ticker).
			Float64("score", c.FinalScore).
			Str("recommendation", c.Recommendation).
			Str("headline", c.Headline).
			Msg("Qualified candidate")
	}

	return nil
}

var reportHeader = []string{
	"ticker", "final_score", "certainty", "magnitude_crore", "sentiment",
	"recommendation", "catalyst_tags", "status", "rejection_reason",
	"heuristic_score", "quant_alpha", "alpha_weight", "ai_fallback",
	"published", "headline", "reasoning",
}

func writeCandidates(path string, candidates []models.RankedCandidate) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return err
	}

	for _, c := range candidates {
		status := "rejected"
		if c.Qualified {
			status = "qualified"
		}
		published := ""
		if !c.Published.IsZero() {
			published = c.Published.Format(time.RFC3339)
		}
		row := []string{
			c.Ticker,
			strconv.FormatFloat(c.FinalScore, 'f', 1, 64),
			strconv.FormatFloat(c.Certainty, 'f', 1, 64),
			strconv.FormatFloat(c.Magnitude, 'f', 1, 64),
			c.Sentiment,
			c.Recommendation,
			JoinTags(c.CatalystTags),
			status,
			c.RejectionReason,
			strconv.FormatFloat(c.SubScores.Heuristic, 'f', 1, 64),
			strconv.FormatFloat(c.SubScores.QuantAlpha, 'f', 1, 64),
			strconv.FormatFloat(c.SubScores.AlphaWeight, 'f', 2, 64),
			strconv.FormatBool(c.AIFallback),
			published,
			c.Headline,
			c.Reasoning,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
