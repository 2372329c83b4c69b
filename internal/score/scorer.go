// -----------------------------------------------------------------------
// Certainty & Magnitude Scorer - rule-evaluated certainty with
// fake-rally detection
// -----------------------------------------------------------------------

package score

import (
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

// implausibleUncorroboratedCrore is the magnitude above which a single
// uncorroborated source is not believed.
const implausibleUncorroboratedCrore = 1000.0

// Outcome is the scorer's result for one ticker.
type Outcome struct {
	Certainty    float64
	Magnitude    float64
	CatalystTags []string
	FakeRally    bool
	HeadlineOnly bool
}

// Scorer computes certainty and magnitude from accepted articles.
type Scorer struct {
	config         *common.ScoreConfig
	rules          []Rule
	premiumDomains map[string]bool
	logger         arbor.ILogger
}

// NewScorer creates a scorer with the default rule set.
func NewScorer(config *common.ScoreConfig, premiumDomains map[string]bool, logger arbor.ILogger) *Scorer {
	return &Scorer{
		config:         config,
		rules:          DefaultRules(),
		premiumDomains: premiumDomains,
		logger:         logger,
	}
}

// Score evaluates the rule set over the accepted articles. Certainty is
// base plus rule contributions, clamped to [0,100]; flagged fake rallies
// are capped regardless of bonuses, as are headline-only degraded tickers.
func (s *Scorer) Score(ticker common.Ticker, articles []*models.ArticleRecord, now time.Time) Outcome {
	if len(articles) == 0 {
		return Outcome{}
	}

	features := ExtractFeatures(articles, s.premiumDomains, now)

	certainty := s.config.BaseCertainty
	for _, rule := range s.rules {
		contribution := rule.Contribution(features)
		if contribution != 0 {
			s.logger.Debug().
				Str("ticker", ticker.String()).
				Str("rule", rule.Name).
				Float64("contribution", contribution).
				Msg("Certainty rule applied")
		}
		certainty += contribution
	}

	magnitude := Magnitude(features.Figures)

	fakeRally := s.detectFakeRally(features, magnitude)
	if fakeRally && certainty > s.config.FakeRallyCeiling {
		certainty = s.config.FakeRallyCeiling
	}
	if features.HeadlineOnly && certainty > s.config.HeadlineCeiling {
		certainty = s.config.HeadlineCeiling
	}

	certainty = clamp(certainty, 0, 100)

	return Outcome{
		Certainty:    certainty,
		Magnitude:    magnitude,
		CatalystTags: features.CategoryTags(),
		FakeRally:    fakeRally,
		HeadlineOnly: features.HeadlineOnly,
	}
}

// detectFakeRally flags magnitude that is not backed by realized,
// corroborated facts: a huge uncorroborated figure, or figures that are
// all forward-looking.
func (s *Scorer) detectFakeRally(f *Features, magnitude float64) bool {
	if magnitude > implausibleUncorroboratedCrore && f.ExtraSources == 0 {
		return true
	}
	if OnlyConditional(f.Figures) {
		return true
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
