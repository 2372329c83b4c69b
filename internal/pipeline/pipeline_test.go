package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
	"github.com/ternarybob/catalyst/internal/score"
)

func newTestRun(t *testing.T) *Run {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = t.TempDir()

	run, err := NewRun(config, nil, common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { run.Close() })
	return run
}

func newsArticle(id, headline string) *models.ArticleRecord {
	return &models.ArticleRecord{
		ID:        id,
		SourceURL: "https://news.example.com/" + id,
		Headline:  headline,
		Body:      headline + ". The company confirmed the order in an exchange filing.",
		Published: time.Now().Add(-2 * time.Hour),
	}
}

func TestResolveAndFilterAcceptsConfirmedStory(t *testing.T) {
	run := newTestRun(t)
	target := Target{Ticker: common.ParseTicker("NSE:INFY"), Aliases: []string{"Infosys"}}
	tc := models.NewTickerContext(target.Ticker, target.Aliases)

	article := newsArticle("a1", "Infosys wins Rs 650 crore order from Liberty Global")
	article.SetDomain()
	run.resolveAndFilter(tc, target, article)
	tc.AddArticle(article)

	assert.False(t, article.Rejected)
	assert.Empty(t, article.DuplicateOf)
}

func TestNearDuplicateCorroboratesOriginal(t *testing.T) {
	run := newTestRun(t)
	target := Target{Ticker: common.ParseTicker("NSE:INFY"), Aliases: []string{"Infosys"}}
	tc := models.NewTickerContext(target.Ticker, target.Aliases)

	original := newsArticle("a1", "Infosys wins Rs 650 crore order from Liberty Global")
	original.SetDomain()
	run.resolveAndFilter(tc, target, original)
	tc.AddArticle(original)
	require.False(t, original.Rejected)

	duplicate := newsArticle("a2", "Infosys wins Rs 650 crore order from Liberty")
	duplicate.SetDomain()
	run.resolveAndFilter(tc, target, duplicate)
	tc.AddArticle(duplicate)

	assert.Equal(t, "a1", duplicate.DuplicateOf)
	assert.Equal(t, 1, original.DuplicateCount, "fold must corroborate the surviving original")

	// The fold shows up as an extra source in the scoring features
	features := score.ExtractFeatures(tc.SurvivingArticles(), nil, time.Now())
	assert.Equal(t, 1, features.ExtraSources)
}
