package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/catalyst/internal/common"
)

func TestFeedsForExpandsTemplates(t *testing.T) {
	r, err := NewRegistry("", common.GetLogger())
	require.NoError(t, err)

	feeds := r.FeedsFor(common.ParseTicker("NSE:INFY"), "Infosys Limited")
	require.NotEmpty(t, feeds)

	byName := map[string]Feed{}
	for _, f := range feeds {
		byName[f.Name] = f
	}

	google := byName["google-news-search"]
	assert.Contains(t, google.URL, "INFY")
	assert.Contains(t, google.URL, "Infosys+Limited")
	assert.NotContains(t, google.URL, "{ticker}")
	assert.NotContains(t, google.URL, "{company}")

	// Global feeds pass through untouched
	et := byName["economic-times-markets"]
	assert.True(t, et.Global)
	assert.NotContains(t, et.URL, "INFY")
}

func TestFeedsForDefaultsCompanyToCode(t *testing.T) {
	r, err := NewRegistry("", common.GetLogger())
	require.NoError(t, err)

	feeds := r.FeedsFor(common.ParseTicker("NSE:TCS"), "")
	for _, f := range feeds {
		assert.NotContains(t, f.URL, "{company}")
	}
}

func TestNewRegistryMergesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feeds:
  - name: custom-wire
    url: https://wire.example.com/rss
    kind: publisher
    premium: true
    global: true
  - name: broken-entry
    url: ""
`), 0o644))

	r, err := NewRegistry(path, common.GetLogger())
	require.NoError(t, err)

	globals := r.GlobalFeeds()
	names := map[string]bool{}
	for _, f := range globals {
		names[f.Name] = true
	}
	assert.True(t, names["custom-wire"])
	assert.False(t, names["broken-entry"], "entries without URLs are dropped")

	assert.True(t, r.PremiumDomains()["wire.example.com"])
}

func TestNewRegistryMissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "missing.yaml"), common.GetLogger())
	assert.Error(t, err)
}

func TestPremiumDomains(t *testing.T) {
	r, err := NewRegistry("", common.GetLogger())
	require.NoError(t, err)

	domains := r.PremiumDomains()
	assert.True(t, domains["economictimes.indiatimes.com"])
	assert.True(t, domains["moneycontrol.com"])
	// Exchange feeds are not premium publishers
	assert.False(t, domains["bseindia.com"])
}
