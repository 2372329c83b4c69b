// -----------------------------------------------------------------------
// Dedup & Cache Layer - URL ledger with cross-run retention plus
// near-duplicate headline suppression
// -----------------------------------------------------------------------

package dedup

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/catalyst/internal/common"
)

// URLEntry is one dedup ledger row, keyed by normalized URL. Entries
// expire after the retention window so the ledger stays bounded across
// short-lived runs.
type URLEntry struct {
	NormalizedURL string `badgerhold:"unique"`
	HeadlineHash  string
	Ticker        string
	ArticleID     string
	FirstSeen     time.Time
	Duplicates    int
}

// headlineEntry is the in-memory similarity record for one registered
// headline within the current run.
type headlineEntry struct {
	articleID string
	tokens    map[string]bool
}

// Cache is the dedup layer. The badger ledger answers Seen across runs;
// the in-memory per-ticker headline lists answer NearDuplicate within a
// run. Safe for concurrent use.
type Cache struct {
	store     *badgerhold.Store
	logger    arbor.ILogger
	threshold float64
	retention time.Duration

	mu        sync.Mutex
	headlines map[string][]headlineEntry // ticker -> registered headlines
}

// Open opens the ledger, purging entries older than the retention window.
func Open(badgerCfg *common.BadgerConfig, dedupCfg *common.DedupConfig, logger arbor.ILogger) (*Cache, error) {
	if badgerCfg.ResetOnStartup {
		if _, err := os.Stat(badgerCfg.Path); err == nil {
			logger.Debug().Str("path", badgerCfg.Path).Msg("Deleting existing cache (reset_on_startup=true)")
			if err := os.RemoveAll(badgerCfg.Path); err != nil {
				logger.Warn().Err(err).Str("path", badgerCfg.Path).Msg("Failed to delete cache directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(badgerCfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = badgerCfg.Path
	options.ValueDir = badgerCfg.Path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup cache: %w", err)
	}

	c := &Cache{
		store:     store,
		logger:    logger,
		threshold: dedupCfg.SimilarityThreshold,
		retention: dedupCfg.Retention,
		headlines: make(map[string][]headlineEntry),
	}

	if err := c.purgeExpired(); err != nil {
		logger.Warn().Err(err).Msg("Failed to purge expired cache entries")
	}

	return c, nil
}

// purgeExpired removes ledger entries beyond the retention window.
func (c *Cache) purgeExpired() error {
	cutoff := time.Now().Add(-c.retention)
	return c.store.DeleteMatching(&URLEntry{}, badgerhold.Where("FirstSeen").Lt(cutoff))
}

// Seen reports whether a URL was already registered within the retention
// window, in this run or a prior one.
func (c *Cache) Seen(rawURL string) bool {
	key := NormalizeURL(rawURL)

	var entry URLEntry
	err := c.store.Get(key, &entry)
	if err == badgerhold.ErrNotFound {
		return false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("url", rawURL).Msg("Cache lookup failed, treating as unseen")
		return false
	}
	return true
}

// Register records a URL and its headline. Returns an error only on
// storage failure; re-registering a seen URL is a no-op.
func (c *Cache) Register(rawURL, headline, articleID, ticker string) error {
	key := NormalizeURL(rawURL)

	entry := URLEntry{
		NormalizedURL: key,
		HeadlineHash:  headlineHash(headline),
		Ticker:        ticker,
		ArticleID:     articleID,
		FirstSeen:     time.Now(),
	}

	if err := c.store.Insert(key, &entry); err != nil && err != badgerhold.ErrKeyExists {
		return fmt.Errorf("failed to register url: %w", err)
	}

	c.mu.Lock()
	c.headlines[ticker] = append(c.headlines[ticker], headlineEntry{
		articleID: articleID,
		tokens:    Tokenize(headline),
	})
	c.mu.Unlock()

	return nil
}

// NearDuplicate checks a headline against those already registered for the
// ticker this run. On a match it returns the earliest-seen article's ID and
// bumps that entry's duplicate counter; the caller folds the new article
// into the original rather than double-counting it.
func (c *Cache) NearDuplicate(headline, ticker string) (string, bool) {
	tokens := Tokenize(headline)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.headlines[ticker] {
		if OverlapRatio(tokens, existing.tokens) >= c.threshold {
			c.bumpDuplicate(existing.articleID)
			return existing.articleID, true
		}
	}
	return "", false
}

// bumpDuplicate increments the ledger's duplicate counter for the original
// entry. Held under c.mu by the caller.
func (c *Cache) bumpDuplicate(articleID string) {
	var entries []URLEntry
	if err := c.store.Find(&entries, badgerhold.Where("ArticleID").Eq(articleID)); err != nil || len(entries) == 0 {
		return
	}
	entry := entries[0]
	entry.Duplicates++
	if err := c.store.Update(entry.NormalizedURL, &entry); err != nil {
		c.logger.Debug().Err(err).Str("article_id", articleID).Msg("Failed to bump duplicate counter")
	}
}

// DuplicateCount returns the number of near-duplicates folded into the
// given article, used by the scorer as a corroboration signal.
func (c *Cache) DuplicateCount(articleID string) int {
	var entries []URLEntry
	if err := c.store.Find(&entries, badgerhold.Where("ArticleID").Eq(articleID)); err != nil || len(entries) == 0 {
		return 0
	}
	return entries[0].Duplicates
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// NormalizeURL canonicalizes a URL for ledger keying: lowercase scheme and
// host, fragments and tracking parameters stripped, trailing slash removed.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		lower := strings.ToLower(param)
		if strings.HasPrefix(lower, "utm_") || lower == "ref" || lower == "fbclid" || lower == "gclid" {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}

// headlineHash produces a stable, order-independent hash of the headline's
// token set.
func headlineHash(headline string) string {
	tokens := Tokenize(headline)
	sorted := make([]string, 0, len(tokens))
	for tok := range tokens {
		sorted = append(sorted, tok)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}
