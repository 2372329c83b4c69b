package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Market Wire</title>
<item>
	<title>Infosys wins $1.5 billion outsourcing deal</title>
	<link>https://wire.example.com/infosys-deal</link>
	<pubDate>Fri, 29 Aug 2026 09:30:00 +0530</pubDate>
</item>
<item>
	<title>Tata Motors reports record quarterly sales</title>
	<link>https://wire.example.com/tata-sales</link>
	<pubDate>Mon, 10 Aug 2026 12:00:00 +0530</pubDate>
</item>
<item>
	<title>Undated regulatory filing note</title>
	<link>https://wire.example.com/filing-note</link>
</item>
<item>
	<title></title>
	<link>https://wire.example.com/no-title</link>
	<pubDate>Fri, 29 Aug 2026 10:00:00 +0530</pubDate>
</item>
<item>
	<title>Dangling item without a link</title>
	<pubDate>Fri, 29 Aug 2026 11:00:00 +0530</pubDate>
</item>
</channel>
</rss>`

func TestParseListing(t *testing.T) {
	feed := Feed{Name: "test-wire", Kind: KindPublisher}
	cutoff := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	items, err := ParseListing(feed, sampleRSS, 0, cutoff)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Infosys wins $1.5 billion outsourcing deal", items[0].Title)
	assert.Equal(t, "https://wire.example.com/infosys-deal", items[0].Link)
	assert.Equal(t, "test-wire", items[0].Feed.Name)
	assert.False(t, items[0].Published.IsZero())

	// Items without a parseable timestamp survive the cutoff here
	assert.Equal(t, "Undated regulatory filing note", items[1].Title)
	assert.True(t, items[1].Published.IsZero())
}

func TestParseListingMaxItems(t *testing.T) {
	feed := Feed{Name: "test-wire"}
	items, err := ParseListing(feed, sampleRSS, 1, time.Time{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParseListingCutoffKeepsRecentOnly(t *testing.T) {
	feed := Feed{Name: "test-wire"}

	// With no cutoff, the stale item is included too
	items, err := ParseListing(feed, sampleRSS, 0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Contains(t, titles, "Tata Motors reports record quarterly sales")
}

func TestParseListingMalformedXML(t *testing.T) {
	_, err := ParseListing(Feed{Name: "bad"}, "not a feed at all", 0, time.Time{})
	assert.Error(t, err)
}
