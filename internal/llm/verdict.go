// -----------------------------------------------------------------------
// Verdict bridge - structured prompt out, schema-validated verdict back,
// heuristic fallback on any failure
// -----------------------------------------------------------------------

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

const systemInstruction = `You are an equity news analyst. Given one news item about a listed company, respond with a single JSON object and nothing else:
{"score": 0-100, "sentiment": "bullish"|"bearish"|"neutral", "catalyst_tags": [strings], "certainty": 0-100, "reasoning": string}
Score reflects trade attractiveness on confirmed facts only. Discount speculation, rumours, and forward-looking targets.`

// Analyzer produces verdicts, preferring an AI provider while the budget
// lasts and degrading to the heuristic path on any bridge failure.
type Analyzer struct {
	factory *ProviderFactory
	budget  *Budget
	timeout time.Duration
	enabled bool
	logger  arbor.ILogger
}

// NewAnalyzer creates the verdict analyzer.
func NewAnalyzer(config *common.LLMConfig, factory *ProviderFactory, timeout time.Duration, logger arbor.ILogger) *Analyzer {
	return &Analyzer{
		factory: factory,
		budget:  NewBudget(config.CallBudget),
		timeout: timeout,
		enabled: config.Enabled,
		logger:  logger,
	}
}

// Budget exposes the shared call budget for run statistics.
func (a *Analyzer) Budget() *Budget {
	return a.budget
}

// Request carries everything the bridge sends: the article, and any
// structured technical context formatted upstream.
type Request struct {
	Ticker    common.Ticker
	Article   *models.ArticleRecord
	TechNotes string // Preformatted price/volume/indicator figures, may be empty
}

// Analyze returns an AI verdict, or an error when the bridge is disabled,
// out of budget, or failed. Callers fall back to HeuristicVerdict; the
// pipeline's correctness never depends on this succeeding.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*models.Verdict, error) {
	if !a.enabled {
		return nil, fmt.Errorf("ai bridge disabled")
	}
	if !a.budget.Acquire() {
		a.logger.Debug().
			Str("ticker", req.Ticker.String()).
			Msg("AI call budget exhausted, falling back to heuristic")
		return nil, fmt.Errorf("ai call budget exhausted")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.factory.GenerateContent(callCtx, &ContentRequest{
		Prompt:            buildPrompt(req),
		SystemInstruction: systemInstruction,
		JSONOutput:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("ai bridge call failed: %w", err)
	}

	verdict, err := ParseVerdict(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("ai bridge returned malformed verdict: %w", err)
	}

	a.logger.Debug().
		Str("ticker", req.Ticker.String()).
		Str("provider", string(resp.Provider)).
		Float64("score", verdict.Score).
		Msg("AI verdict received")

	return verdict, nil
}

// buildPrompt assembles the structured prompt for one article.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s\n", req.Ticker.String())
	fmt.Fprintf(&b, "Headline: %s\n", req.Article.Headline)
	fmt.Fprintf(&b, "Source: %s\n", req.Article.Domain)
	if !req.Article.Published.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", req.Article.Published.Format(time.RFC3339))
	}
	if req.TechNotes != "" {
		fmt.Fprintf(&b, "Technicals: %s\n", req.TechNotes)
	}
	if req.Article.Body != "" {
		fmt.Fprintf(&b, "Body:\n%s\n", excerpt(req.Article.Body, 1500))
	} else {
		b.WriteString("Body: unavailable, headline only\n")
	}
	return b.String()
}

// excerpt truncates text at a rune-safe boundary.
func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// verdictPayload is the wire shape expected from the provider.
type verdictPayload struct {
	Score        *float64 `json:"score"`
	Sentiment    string   `json:"sentiment"`
	CatalystTags []string `json:"catalyst_tags"`
	Certainty    *float64 `json:"certainty"`
	Reasoning    string   `json:"reasoning"`
}

// ParseVerdict validates a provider response against the verdict schema.
// Every field is checked before any of it is trusted; failures surface as
// bridge errors, never as partial verdicts.
func ParseVerdict(text string) (*models.Verdict, error) {
	cleaned := stripCodeFences(text)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("invalid verdict JSON: %w", err)
	}

	if payload.Score == nil {
		return nil, fmt.Errorf("verdict missing score")
	}
	if *payload.Score < 0 || *payload.Score > 100 {
		return nil, fmt.Errorf("verdict score %v out of range", *payload.Score)
	}
	if payload.Certainty == nil {
		return nil, fmt.Errorf("verdict missing certainty")
	}
	if *payload.Certainty < 0 || *payload.Certainty > 100 {
		return nil, fmt.Errorf("verdict certainty %v out of range", *payload.Certainty)
	}
	sentiment := strings.ToLower(strings.TrimSpace(payload.Sentiment))
	if !models.ValidSentiment(sentiment) {
		return nil, fmt.Errorf("verdict sentiment %q not recognized", payload.Sentiment)
	}

	return &models.Verdict{
		Score:        *payload.Score,
		Sentiment:    sentiment,
		CatalystTags: payload.CatalystTags,
		Certainty:    *payload.Certainty,
		Reasoning:    strings.TrimSpace(payload.Reasoning),
		Source:       models.VerdictSourceAI,
	}, nil
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}
