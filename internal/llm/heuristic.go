package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/catalyst/internal/models"
	"github.com/ternarybob/catalyst/internal/score"
)

var bearishRe = regexp.MustCompile(`(?i)\b(loss|losses|decline[sd]?|fall[s]?|fell|plunge[sd]?|slump[sd]?|downgrade[sd]?|penalty|fraud|default|probe|lawsuit|recall|shutdown|resign(?:s|ed|ation)?|misses|missed)\b`)

// HeuristicVerdict derives a verdict from the rule-based scoring outcome
// alone. It is the path of record whenever the AI bridge is disabled,
// over budget, or failed.
func HeuristicVerdict(outcome score.Outcome, headline string) *models.Verdict {
	sentiment := models.SentimentNeutral
	if len(outcome.CatalystTags) > 0 {
		sentiment = models.SentimentBullish
	}
	if bearishRe.MatchString(headline) {
		sentiment = models.SentimentBearish
	}

	reasoning := "rule-based scoring"
	if len(outcome.CatalystTags) > 0 {
		reasoning = fmt.Sprintf("rule-based scoring: %s", strings.Join(outcome.CatalystTags, ", "))
	}
	if outcome.FakeRally {
		reasoning += "; uncorroborated or conditional figures capped the score"
	}

	return &models.Verdict{
		Score:        outcome.Certainty,
		Sentiment:    sentiment,
		CatalystTags: outcome.CatalystTags,
		Certainty:    outcome.Certainty,
		Reasoning:    reasoning,
		Source:       models.VerdictSourceHeuristic,
	}
}
