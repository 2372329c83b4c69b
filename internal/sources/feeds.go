package sources

import (
	"time"

	"github.com/mmcdole/gofeed"
)

// ListingItem is one entry from a feed listing, before the article page
// itself has been fetched.
type ListingItem struct {
	Title     string
	Link      string
	Published time.Time
	Feed      Feed
}

// ParseListing parses raw RSS/Atom bytes into listing items. Items older
// than cutoff are dropped here so no extraction work is wasted on them.
// Items without a parseable timestamp are kept; they carry a zero
// Published time, which forfeits the scorer's recency bonus.
func ParseListing(feed Feed, raw string, maxItems int, cutoff time.Time) ([]ListingItem, error) {
	parsed, err := gofeed.NewParser().ParseString(raw)
	if err != nil {
		return nil, err
	}

	items := make([]ListingItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it.Link == "" || it.Title == "" {
			continue
		}

		var published time.Time
		if it.PublishedParsed != nil {
			published = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			published = *it.UpdatedParsed
		}

		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		items = append(items, ListingItem{
			Title:     it.Title,
			Link:      it.Link,
			Published: published,
			Feed:      feed,
		})

		if maxItems > 0 && len(items) >= maxItems {
			break
		}
	}

	return items, nil
}
