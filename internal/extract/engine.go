// -----------------------------------------------------------------------
// Extraction Engine - ordered strategy cascade with AMP fallback
// -----------------------------------------------------------------------

package extract

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/models"
)

// ErrNoContent is returned when every strategy failed on the primary page
// and, if one was available, the alternate page too.
var ErrNoContent = errors.New("no extractable content")

// FetchFunc retrieves the HTML of a URL; injected so the engine can fetch
// an alternate page without owning an HTTP client.
type FetchFunc func(ctx context.Context, url string) (string, error)

// Engine runs extraction strategies in a fixed priority order and stops at
// the first one producing text above the minimum length.
type Engine struct {
	strategies []Strategy
	minLength  int
	logger     arbor.ILogger
}

// NewEngine builds the default cascade: structured, readability, markdown.
func NewEngine(minLength int, logger arbor.ILogger) *Engine {
	return &Engine{
		strategies: []Strategy{
			structuredStrategy{},
			readabilityStrategy{},
			newMarkdownStrategy(),
		},
		minLength: minLength,
		logger:    logger,
	}
}

// Extract attempts the strategy list on the page HTML. When all strategies
// fail and altURL is non-empty, the alternate page is fetched once and the
// list is retried. Returns ErrNoContent when everything fails; the caller
// decides whether to keep a headline-only record.
func (e *Engine) Extract(ctx context.Context, html, pageURL string, altURL string, fetchAlt FetchFunc) (string, models.ExtractionStrategy, error) {
	if text, strategy, ok := e.tryStrategies(html, pageURL); ok {
		return text, strategy, nil
	}

	if altURL != "" && fetchAlt != nil {
		altHTML, err := fetchAlt(ctx, altURL)
		if err != nil {
			e.logger.Debug().
				Str("url", pageURL).
				Str("alt_url", altURL).
				Err(err).
				Msg("Alternate page fetch failed")
			return "", models.StrategyNone, ErrNoContent
		}

		if text, strategy, ok := e.tryStrategies(altHTML, altURL); ok {
			return text, strategy, nil
		}
	}

	return "", models.StrategyNone, ErrNoContent
}

// tryStrategies runs the cascade on one page.
func (e *Engine) tryStrategies(html, pageURL string) (string, models.ExtractionStrategy, bool) {
	for _, strategy := range e.strategies {
		text, err := strategy.Extract(html)
		if err != nil {
			e.logger.Debug().
				Str("url", pageURL).
				Str("strategy", string(strategy.Name())).
				Err(err).
				Msg("Extraction strategy errored")
			continue
		}

		if len(text) >= e.minLength {
			e.logger.Debug().
				Str("url", pageURL).
				Str("strategy", string(strategy.Name())).
				Int("length", len(text)).
				Msg("Extraction succeeded")
			return text, strategy.Name(), true
		}
	}
	return "", models.StrategyNone, false
}
