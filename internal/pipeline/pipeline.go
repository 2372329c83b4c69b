// -----------------------------------------------------------------------
// Run orchestration - one Run owns the fetch scheduler, dedup cache, and
// AI budget, fans out per ticker, and ranks at the single global barrier
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/catalyst/internal/blend"
	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/dedup"
	"github.com/ternarybob/catalyst/internal/extract"
	"github.com/ternarybob/catalyst/internal/fetch"
	"github.com/ternarybob/catalyst/internal/filter"
	"github.com/ternarybob/catalyst/internal/llm"
	"github.com/ternarybob/catalyst/internal/market"
	"github.com/ternarybob/catalyst/internal/models"
	"github.com/ternarybob/catalyst/internal/resolve"
	"github.com/ternarybob/catalyst/internal/score"
	"github.com/ternarybob/catalyst/internal/sources"
)

// Target is one equity in the run universe: the ticker plus the company
// name and aliases used for entity resolution and feed templating.
type Target struct {
	Ticker  common.Ticker
	Aliases []string // First entry is the canonical company name
}

// Stats summarizes one run.
type Stats struct {
	Tickers         int
	FeedsFetched    int
	ArticlesFetched int
	Duplicates      int
	Rejected        int
	AICallsUsed     int
	DegradedHosts   []string
	Elapsed         time.Duration
}

// Result is the complete run output.
type Result struct {
	Qualified []models.RankedCandidate
	Rejected  []models.RankedCandidate
	Stats     Stats
}

// Run wires every stage together for a single pipeline execution. The
// scheduler's host limiter, the dedup cache, and the AI budget are the
// only structures shared across ticker goroutines.
type Run struct {
	config    *common.Config
	registry  *sources.Registry
	scheduler *fetch.Scheduler
	engine    *extract.Engine
	cache     *dedup.Cache
	resolver  *resolve.Resolver
	filter    *filter.QualityFilter
	scorer    *score.Scorer
	analyzer  *llm.Analyzer
	marketAPI *market.Client // nil when no API key configured
	blender   *blend.Blender
	ranker    *blend.Ranker
	logger    arbor.ILogger

	mu         sync.Mutex
	duplicates int
	fetched    int
	feeds      int
}

// NewRun assembles a run from configuration. The dedup cache must be
// closed by the caller via Close.
func NewRun(config *common.Config, analyzer *llm.Analyzer, logger arbor.ILogger) (*Run, error) {
	registry, err := sources.NewRegistry(config.Sources.RegistryFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load source registry: %w", err)
	}

	cache, err := dedup.Open(&config.Storage.Badger, &config.Dedup, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup cache: %w", err)
	}

	premium := registry.PremiumDomains()

	var marketAPI *market.Client
	if config.Market.APIKey != "" {
		timeout, _ := time.ParseDuration(config.Market.RequestTimeout)
		marketAPI = market.NewClient(config.Market.APIKey,
			market.WithBaseURL(config.Market.BaseURL),
			market.WithRateLimit(config.Market.RateLimit),
			market.WithTimeout(timeout),
			market.WithAvgVolumeWindow(config.Market.AvgVolumeDays),
			market.WithLogger(logger),
		)
	}

	return &Run{
		config:    config,
		registry:  registry,
		scheduler: fetch.NewScheduler(&config.Fetch, logger),
		engine:    extract.NewEngine(config.Extract.MinBodyLength, logger),
		cache:     cache,
		resolver:  resolve.NewResolver(logger),
		filter:    filter.NewQualityFilter(config.Filter.AnchorWindow, logger),
		scorer:    score.NewScorer(&config.Score, premium, logger),
		analyzer:  analyzer,
		marketAPI: marketAPI,
		blender:   blend.NewBlender(&config.Blend, logger),
		ranker:    blend.NewRanker(&config.Rank, logger),
		logger:    logger,
	}, nil
}

// Close releases the dedup cache.
func (r *Run) Close() error {
	return r.cache.Close()
}

// Execute processes every target and returns the ranked result. The
// run-level deadline is enforced here: in-flight fetches are abandoned
// when it expires and whatever accumulated proceeds to ranking.
func (r *Run) Execute(ctx context.Context, targets []Target) (*Result, error) {
	started := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, r.config.RunTimeoutDuration())
	defer cancel()

	cutoff := started.Add(-time.Duration(r.config.Pipeline.LookbackHours) * time.Hour)

	r.logger.Info().
		Int("tickers", len(targets)).
		Str("cutoff", cutoff.Format(time.RFC3339)).
		Msg("Pipeline run starting")

	entries := make([]blend.Entry, len(targets))
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(r.config.Pipeline.Concurrency)

	for i, target := range targets {
		g.Go(func() error {
			entries[i] = r.processTicker(gctx, target, cutoff)
			return nil
		})
	}

	// Ranking is the only global barrier: every ticker goroutine finishes
	// (or is cut off by the deadline) before the sort.
	_ = g.Wait()

	ranking := r.ranker.Rank(entries)

	result := &Result{
		Qualified: ranking.Qualified,
		Rejected:  ranking.Rejected,
		Stats: Stats{
			Tickers:         len(targets),
			FeedsFetched:    r.feeds,
			ArticlesFetched: r.fetched,
			Duplicates:      r.duplicates,
			Rejected:        len(ranking.Rejected),
			AICallsUsed:     r.analyzer.Budget().Used(),
			DegradedHosts:   r.scheduler.DegradedHosts(),
			Elapsed:         time.Since(started),
		},
	}

	r.logger.Info().
		Int("qualified", len(result.Qualified)).
		Int("rejected", len(result.Rejected)).
		Int("articles", result.Stats.ArticlesFetched).
		Int("ai_calls", result.Stats.AICallsUsed).
		Dur("elapsed", result.Stats.Elapsed).
		Msg("Pipeline run complete")

	return result, nil
}

// processTicker runs the full per-ticker pipeline. It never fails the
// run: errors reduce to fewer articles, and an empty context is rejected
// at finalization.
func (r *Run) processTicker(ctx context.Context, target Target, cutoff time.Time) blend.Entry {
	tc := models.NewTickerContext(target.Ticker, target.Aliases)

	items := r.collectListings(ctx, target, cutoff)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		article := r.fetchArticle(ctx, item)
		if article == nil {
			continue
		}
		r.resolveAndFilter(tc, target, article)
		tc.AddArticle(article)
	}

	surviving := tc.SurvivingArticles()
	if len(surviving) > 0 {
		outcome := r.scorer.Score(target.Ticker, surviving, time.Now())
		tc.Certainty = outcome.Certainty
		tc.Magnitude = outcome.Magnitude
		tc.CatalystTags = outcome.CatalystTags
		tc.FakeRally = outcome.FakeRally

		alpha, alphaOK := r.quantAlpha(ctx, target.Ticker, tc)
		r.applyVerdict(ctx, tc, target, outcome, alpha, alphaOK)

		tc.Finalize()
		return blend.Entry{Context: tc, Sub: r.blender.Blend(tc, alpha, alphaOK)}
	}

	tc.Finalize()
	return blend.Entry{Context: tc, Sub: r.blender.Blend(tc, 0, false)}
}

// collectListings fetches and parses every feed for the target, newest
// items first per feed, bounded by the per-feed cap and lookback cutoff.
func (r *Run) collectListings(ctx context.Context, target Target, cutoff time.Time) []sources.ListingItem {
	companyName := target.Ticker.Code
	if len(target.Aliases) > 0 {
		companyName = target.Aliases[0]
	}

	var items []sources.ListingItem
	for _, feed := range r.registry.FeedsFor(target.Ticker, companyName) {
		if ctx.Err() != nil {
			break
		}
		res, err := r.scheduler.Fetch(ctx, feed.URL)
		if err != nil {
			r.logger.Warn().
				Str("feed", feed.Name).
				Err(err).
				Msg("Feed fetch failed, skipping")
			continue
		}
		r.mu.Lock()
		r.feeds++
		r.mu.Unlock()

		parsed, err := sources.ParseListing(feed, res.Body, r.config.Sources.MaxPerFeed, cutoff)
		if err != nil {
			r.logger.Warn().
				Str("feed", feed.Name).
				Err(err).
				Msg("Feed parse failed, skipping")
			continue
		}
		items = append(items, parsed...)
	}
	return items
}

// fetchArticle retrieves and extracts one listing item. Returns nil when
// the URL was already seen this retention window or the fetch failed.
func (r *Run) fetchArticle(ctx context.Context, item sources.ListingItem) *models.ArticleRecord {
	if r.cache.Seen(item.Link) {
		return nil
	}

	res, err := r.scheduler.Fetch(ctx, item.Link)
	if err != nil {
		r.logger.Debug().
			Str("url", item.Link).
			Err(err).
			Msg("Article fetch failed, skipping")
		return nil
	}

	r.mu.Lock()
	r.fetched++
	r.mu.Unlock()

	article := &models.ArticleRecord{
		ID:           uuid.New().String(),
		SourceURL:    item.Link,
		CanonicalURL: res.FinalURL,
		Headline:     item.Title,
		Published:    item.Published,
		Fetched:      time.Now(),
		SourceName:   item.Feed.Name,
		Premium:      item.Feed.Premium,
	}
	article.SetDomain()

	altURL := ""
	if r.config.Extract.TryAmpURL {
		altURL = fetch.AlternateURL(res.FinalURL)
		article.AlternateURL = altURL
	}

	body, strategy, err := r.engine.Extract(ctx, res.Body, res.FinalURL, altURL, func(fctx context.Context, u string) (string, error) {
		alt, ferr := r.scheduler.Fetch(fctx, u)
		if ferr != nil {
			return "", ferr
		}
		return alt.Body, nil
	})
	if err != nil {
		if !r.config.Extract.HeadlineOnly {
			return nil
		}
		article.HeadlineOnly = true
	} else {
		article.Body = body
		article.Strategy = strategy
		article.BodyLength = len(body)
	}

	return article
}

// resolveAndFilter applies entity resolution, near-duplicate folding, and
// the quality filter to one article, mutating its stage outcomes.
func (r *Run) resolveAndFilter(tc *models.TickerContext, target Target, article *models.ArticleRecord) {
	resolution := r.resolver.Resolve(target.Ticker, target.Aliases, article.Headline, article.Body)
	article.ResolutionConfidence = resolution.Confidence
	if resolution.Confidence == models.ConfidenceNone {
		article.Reject(resolution.Reason)
		return
	}

	if originalID, dup := r.cache.NearDuplicate(article.Headline, target.Ticker.String()); dup {
		article.DuplicateOf = originalID
		// The fold corroborates the original: its duplicate count feeds
		// the scorer's extra-sources bonus
		for _, a := range tc.Articles {
			if a.ID == originalID {
				a.DuplicateCount++
				break
			}
		}
		r.mu.Lock()
		r.duplicates++
		r.mu.Unlock()
		return
	}
	if err := r.cache.Register(article.SourceURL, article.Headline, article.ID, target.Ticker.String()); err != nil {
		r.logger.Debug().
			Str("url", article.SourceURL).
			Err(err).
			Msg("Dedup ledger registration failed")
	}

	if outcome := r.filter.Check(article, target.Ticker, target.Aliases); !outcome.Accepted {
		article.Reject(outcome.Reason)
	}
}

// quantAlpha fetches the market snapshot and derives the alpha overlay.
// Any failure degrades the ticker to reduced confidence, never blocks.
func (r *Run) quantAlpha(ctx context.Context, ticker common.Ticker, tc *models.TickerContext) (float64, bool) {
	if r.marketAPI == nil {
		tc.ReducedConfidence = true
		return 0, false
	}
	quote, err := r.marketAPI.GetQuote(ctx, ticker.MarketSymbol())
	if err != nil {
		r.logger.Warn().
			Str("ticker", ticker.String()).
			Err(err).
			Msg("Market data unavailable, scoring at reduced confidence")
		tc.ReducedConfidence = true
		return 0, false
	}
	alpha, ok := market.Alpha(quote)
	if !ok {
		tc.ReducedConfidence = true
	}
	return alpha, ok
}

// applyVerdict obtains the AI verdict for the representative article,
// falling back to the heuristic path with the fallback flag set.
func (r *Run) applyVerdict(ctx context.Context, tc *models.TickerContext, target Target, outcome score.Outcome, alpha float64, alphaOK bool) {
	rep := tc.RepresentativeArticle()

	techNotes := ""
	if alphaOK {
		techNotes = fmt.Sprintf("quant alpha %.1f/100", alpha)
	}

	verdict, err := r.analyzer.Analyze(ctx, llm.Request{
		Ticker:    target.Ticker,
		Article:   rep,
		TechNotes: techNotes,
	})
	if err != nil {
		r.logger.Debug().
			Str("ticker", target.Ticker.String()).
			Err(err).
			Msg("Heuristic verdict substituted")
		verdict = llm.HeuristicVerdict(outcome, rep.Headline)
		tc.AIFallback = true
	}

	tc.Verdict = verdict
	tc.Sentiment = verdict.Sentiment
	if len(verdict.CatalystTags) > 0 && len(tc.CatalystTags) == 0 {
		tc.CatalystTags = verdict.CatalystTags
	}
}

// JoinTags renders catalyst tags for the output schema.
func JoinTags(tags []string) string {
	return strings.Join(tags, "|")
}
