package extract

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/catalyst/internal/models"
)

// Strategy is one pure text extractor: page HTML in, body text or error
// out. Strategies hold no shared state so each can be tested alone.
type Strategy interface {
	Name() models.ExtractionStrategy
	Extract(html string) (string, error)
}

// structuredStrategy pulls paragraphs out of the page's declared article
// containers. This is the highest-precision extractor and runs first.
type structuredStrategy struct{}

func (structuredStrategy) Name() models.ExtractionStrategy {
	return models.StrategyStructured
}

func (structuredStrategy) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, aside, form").Remove()

	selectors := []string{
		"[itemprop='articleBody']",
		"article",
		".article-content",
		".story-content",
		".articleBody",
		"#article-body",
		"main",
	}

	for _, selector := range selectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		if text := collectParagraphs(container); text != "" {
			return text, nil
		}
	}

	return "", nil
}

// readabilityStrategy scores candidate blocks by text density with a
// link-density penalty and keeps the best one. Runs when the page has no
// recognizable article container.
type readabilityStrategy struct{}

func (readabilityStrategy) Name() models.ExtractionStrategy {
	return models.StrategyReadability
}

func (readabilityStrategy) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, aside, header, form").Remove()

	var best *goquery.Selection
	var bestScore float64

	doc.Find("div, section, article, td").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < 100 {
			return
		}

		linkText := 0
		s.Find("a").Each(func(j int, a *goquery.Selection) {
			linkText += len(strings.TrimSpace(a.Text()))
		})

		// Text density minus link density: navigation-heavy blocks score low
		linkDensity := float64(linkText) / float64(len(text))
		score := float64(len(text)) * (1.0 - linkDensity)

		paragraphs := s.Find("p").Length()
		score += float64(paragraphs) * 25

		if score > bestScore {
			bestScore = score
			best = s
		}
	})

	if best == nil {
		return "", nil
	}

	if text := collectParagraphs(best); text != "" {
		return text, nil
	}
	return normalizeWhitespace(best.Text()), nil
}

// markdownStrategy converts the whole page to markdown and strips the
// markup back out. Lowest precision, last resort before the AMP fallback.
type markdownStrategy struct {
	converter *md.Converter
}

func newMarkdownStrategy() *markdownStrategy {
	return &markdownStrategy{
		converter: md.NewConverter("", true, nil),
	}
}

func (*markdownStrategy) Name() models.ExtractionStrategy {
	return models.StrategyMarkdown
}

var (
	mdLinkRe    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdMarkupRe  = regexp.MustCompile("[#*_`>|-]{1,}")
	mdImageRe   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

func (s *markdownStrategy) Extract(html string) (string, error) {
	markdown, err := s.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}

	text := mdImageRe.ReplaceAllString(markdown, "")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = mdMarkupRe.ReplaceAllString(text, " ")
	text = blankLineRe.ReplaceAllString(text, "\n\n")

	return normalizeWhitespace(text), nil
}

// collectParagraphs joins the non-trivial <p> contents of a container.
func collectParagraphs(container *goquery.Selection) string {
	var parts []string
	container.Find("p").Each(func(i int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) >= 40 {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// normalizeWhitespace collapses runs of spaces and blank lines.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
