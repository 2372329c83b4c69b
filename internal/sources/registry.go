// -----------------------------------------------------------------------
// Source Registry - enumerates candidate feeds per ticker and globally
// -----------------------------------------------------------------------

package sources

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/catalyst/internal/common"
)

// FeedKind categorizes a feed by origin.
type FeedKind string

const (
	KindAggregator FeedKind = "aggregator" // Search/aggregator feeds with query templates
	KindPublisher  FeedKind = "publisher"  // Direct publisher feeds
	KindExchange   FeedKind = "exchange"   // Exchange/regulatory announcement feeds
)

// Feed is one candidate listing source. URL templates may contain {ticker}
// and {company} placeholders, expanded per ticker.
type Feed struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Kind    FeedKind `yaml:"kind"`
	Premium bool     `yaml:"premium"` // High-credibility domain, feeds the scorer bonus
	Global  bool     `yaml:"global"`  // Listed once per run, not per ticker
}

// Host returns the feed's host for rate-limiting purposes.
func (f Feed) Host() string {
	u, err := url.Parse(f.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Registry holds the known feeds and expands them for tickers.
type Registry struct {
	feeds  []Feed
	logger arbor.ILogger
}

// registryFile is the YAML shape of an external sources file.
type registryFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// defaultFeeds are the built-in sources. Aggregator search feeds carry
// query templates; exchange feeds cover regulatory announcements.
func defaultFeeds() []Feed {
	return []Feed{
		{
			Name: "google-news-search",
			URL:  "https://news.google.com/rss/search?q=%22{company}%22+OR+{ticker}+stock&hl=en-IN&gl=IN&ceid=IN:en",
			Kind: KindAggregator,
		},
		{
			Name: "bing-news-search",
			URL:  "https://www.bing.com/news/search?q={company}+{ticker}&format=rss",
			Kind: KindAggregator,
		},
		{
			Name:    "economic-times-markets",
			URL:     "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms",
			Kind:    KindPublisher,
			Premium: true,
			Global:  true,
		},
		{
			Name:    "moneycontrol-news",
			URL:     "https://www.moneycontrol.com/rss/business.xml",
			Kind:    KindPublisher,
			Premium: true,
			Global:  true,
		},
		{
			Name:    "livemint-markets",
			URL:     "https://www.livemint.com/rss/markets",
			Kind:    KindPublisher,
			Premium: true,
			Global:  true,
		},
		{
			Name:   "nse-announcements",
			URL:    "https://nsearchives.nseindia.com/content/RSS/Online_announcements.xml",
			Kind:   KindExchange,
			Global: true,
		},
		{
			Name:   "bse-announcements",
			URL:    "https://www.bseindia.com/data/xml/notices.xml",
			Kind:   KindExchange,
			Global: true,
		},
	}
}

// NewRegistry builds a registry from the built-in feeds plus an optional
// YAML registry file. A missing file is an error; an empty path is not.
func NewRegistry(registryPath string, logger arbor.ILogger) (*Registry, error) {
	r := &Registry{
		feeds:  defaultFeeds(),
		logger: logger,
	}

	if registryPath != "" {
		data, err := os.ReadFile(registryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read source registry %s: %w", registryPath, err)
		}
		var extra registryFile
		if err := yaml.Unmarshal(data, &extra); err != nil {
			return nil, fmt.Errorf("failed to parse source registry %s: %w", registryPath, err)
		}
		for _, f := range extra.Feeds {
			if f.URL == "" {
				continue
			}
			if f.Kind == "" {
				f.Kind = KindPublisher
			}
			r.feeds = append(r.feeds, f)
		}
		logger.Info().
			Str("path", registryPath).
			Int("extra_feeds", len(extra.Feeds)).
			Msg("Loaded source registry file")
	}

	return r, nil
}

// FeedsFor expands the registry for one ticker. Global feeds are returned
// unchanged; templated feeds get {ticker} and {company} substituted.
func (r *Registry) FeedsFor(ticker common.Ticker, companyName string) []Feed {
	if companyName == "" {
		companyName = ticker.Code
	}

	out := make([]Feed, 0, len(r.feeds))
	for _, f := range r.feeds {
		if f.Global {
			out = append(out, f)
			continue
		}
		expanded := f
		expanded.URL = strings.NewReplacer(
			"{ticker}", url.QueryEscape(ticker.Code),
			"{company}", url.QueryEscape(companyName),
		).Replace(f.URL)
		out = append(out, expanded)
	}
	return out
}

// GlobalFeeds returns only the run-wide feeds.
func (r *Registry) GlobalFeeds() []Feed {
	var out []Feed
	for _, f := range r.feeds {
		if f.Global {
			out = append(out, f)
		}
	}
	return out
}

// PremiumDomains returns the hosts of premium feeds, used by the scorer's
// source-credibility bonus.
func (r *Registry) PremiumDomains() map[string]bool {
	out := make(map[string]bool)
	for _, f := range r.feeds {
		if f.Premium {
			if host := f.Host(); host != "" {
				out[strings.TrimPrefix(host, "www.")] = true
			}
		}
	}
	return out
}
