package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

const paragraph = "Tata Motors said it has won an order worth Rs 650 crore for 1,500 electric buses from the state transport undertaking, with deliveries beginning next fiscal year."

func articleHTML(container string) string {
	return fmt.Sprintf(`<html><head><title>t</title></head><body>
<nav><a href="/">Home</a><a href="/markets">Markets</a></nav>
%s
<footer>Copyright</footer>
</body></html>`, container)
}

func TestEngineStructuredExtraction(t *testing.T) {
	e := NewEngine(100, common.GetLogger())

	html := articleHTML(`<article><p>` + paragraph + `</p><p>` + paragraph + `</p></article>`)
	text, strategy, err := e.Extract(context.Background(), html, "https://example.com/story", "", nil)

	require.NoError(t, err)
	assert.Equal(t, models.StrategyStructured, strategy)
	assert.Contains(t, text, "Rs 650 crore")
	// Navigation chrome never leaks into the body
	assert.NotContains(t, text, "Markets")
}

func TestEngineItempropPreferred(t *testing.T) {
	e := NewEngine(100, common.GetLogger())

	html := articleHTML(`<div itemprop="articleBody"><p>` + paragraph + `</p></div>`)
	text, strategy, err := e.Extract(context.Background(), html, "https://example.com/story", "", nil)

	require.NoError(t, err)
	assert.Equal(t, models.StrategyStructured, strategy)
	assert.Contains(t, text, "electric buses")
}

func TestEngineFallsBackToReadability(t *testing.T) {
	e := NewEngine(100, common.GetLogger())

	// No article container: the density scorer has to find the block
	html := articleHTML(`<div class="random-wrapper"><div><p>` + paragraph + `</p><p>` + paragraph + `</p></div></div>`)
	text, strategy, err := e.Extract(context.Background(), html, "https://example.com/story", "", nil)

	require.NoError(t, err)
	assert.Equal(t, models.StrategyReadability, strategy)
	assert.Contains(t, text, "state transport")
}

func TestEngineShortContentFails(t *testing.T) {
	e := NewEngine(200, common.GetLogger())

	html := articleHTML(`<article><p>Too short to be an article body, really.</p></article>`)
	_, _, err := e.Extract(context.Background(), html, "https://example.com/story", "", nil)

	assert.ErrorIs(t, err, ErrNoContent)
}

func TestEngineAlternateURLFallback(t *testing.T) {
	e := NewEngine(100, common.GetLogger())

	empty := articleHTML(`<div class="teaser">Subscribe to continue reading.</div>`)
	ampHTML := articleHTML(`<article><p>` + paragraph + `</p></article>`)

	fetched := ""
	text, strategy, err := e.Extract(context.Background(), empty, "https://example.com/story",
		"https://example.com/story/amp",
		func(ctx context.Context, u string) (string, error) {
			fetched = u
			return ampHTML, nil
		})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/story/amp", fetched)
	assert.Equal(t, models.StrategyStructured, strategy)
	assert.Contains(t, text, "electric buses")
}

func TestEngineAlternateFetchFailure(t *testing.T) {
	e := NewEngine(100, common.GetLogger())

	empty := articleHTML(`<div class="teaser">Subscribe to continue reading.</div>`)
	_, _, err := e.Extract(context.Background(), empty, "https://example.com/story",
		"https://example.com/story/amp",
		func(ctx context.Context, u string) (string, error) {
			return "", fmt.Errorf("connection refused")
		})

	assert.ErrorIs(t, err, ErrNoContent)
}

func TestCollectParagraphsSkipsTrivia(t *testing.T) {
	html := `<article><p>Share</p><p>` + paragraph + `</p><p>Ad</p></article>`
	s := structuredStrategy{}
	text, err := s.Extract(html)

	require.NoError(t, err)
	assert.Contains(t, text, "Tata Motors")
	assert.NotContains(t, text, "Share")
}

func TestNormalizeWhitespace(t *testing.T) {
	got := normalizeWhitespace("a   b\n\n\n  c   d  \n")
	assert.Equal(t, "a b\nc d", got)
}

func TestMarkdownStrategyStripsMarkup(t *testing.T) {
	s := newMarkdownStrategy()
	text, err := s.Extract(`<html><body><h1>Headline</h1><p>` + paragraph + ` See <a href="https://example.com">the filing</a>.</p></body></html>`)

	require.NoError(t, err)
	assert.Contains(t, text, "the filing")
	assert.False(t, strings.Contains(text, "]("), "markdown link syntax must be stripped")
}
