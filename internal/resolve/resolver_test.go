package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/catalyst/internal/common"
	"github.com/ternarybob/catalyst/internal/models"
)

func TestResolveSymbolInHeadline(t *testing.T) {
	r := NewResolver(common.GetLogger())
	ticker := common.ParseTicker("NSE:INFY")

	res := r.Resolve(ticker, []string{"Infosys Limited"},
		"INFY shares jump after deal announcement", "")
	assert.Equal(t, models.ConfidenceHigh, res.Confidence)
}

func TestResolveCompanyName(t *testing.T) {
	r := NewResolver(common.GetLogger())
	ticker := common.ParseTicker("NSE:TATAMOTORS")

	res := r.Resolve(ticker, []string{"Tata Motors"},
		"Tata Motors wins Rs 1,200 crore electric bus order",
		"The automaker confirmed the order on Tuesday.")
	assert.Equal(t, models.ConfidenceMedium, res.Confidence)
}

func TestResolvePartialNameNeedsCorroboration(t *testing.T) {
	r := NewResolver(common.GetLogger())
	ticker := common.ParseTicker("NSE:SUNPHARMA")
	aliases := []string{"Sun Pharmaceutical Industries"}

	// Partial fragment plus a confirmed action verb counts as a weak match
	res := r.Resolve(ticker, aliases,
		"Drugmaker update", "The pharmaceutical major announced results this morning.")
	assert.Equal(t, models.ConfidenceLow, res.Confidence)

	// Partial fragment alone does not
	res = r.Resolve(ticker, aliases,
		"Drugmaker update", "The pharmaceutical major held its annual meet.")
	assert.Equal(t, models.ConfidenceNone, res.Confidence)
}

func TestResolveNoMatch(t *testing.T) {
	r := NewResolver(common.GetLogger())
	ticker := common.ParseTicker("NSE:WIPRO")

	res := r.Resolve(ticker, []string{"Wipro"},
		"HDFC Bank opens 100 new branches", "")
	assert.Equal(t, models.ConfidenceNone, res.Confidence)
	assert.Equal(t, "no entity match", res.Reason)
}

func TestResolveRejectsRoundupDespiteSymbol(t *testing.T) {
	r := NewResolver(common.GetLogger())
	ticker := common.ParseTicker("NSE:TCS")

	// Roundup detection wins even with the exact symbol present
	res := r.Resolve(ticker, []string{"Tata Consultancy Services"},
		"8 of top-10 firms add Rs 81,151 crore in m-cap; TCS biggest gainer", "")
	assert.Equal(t, models.ConfidenceNone, res.Confidence)
	assert.Equal(t, ReasonRoundup, res.Reason)
}

func TestDetectRoundupReason(t *testing.T) {
	// Pattern hits and enumeration hits record the same audit reason
	reason, ok := DetectRoundup("Stocks to watch today: Infosys, TCS, Wipro")
	assert.True(t, ok)
	assert.Equal(t, "generic industry roundup", reason)

	reason, ok = DetectRoundup("Infosys, TCS, Wipro, HCL Tech, Tech Mahindra gained today.")
	assert.True(t, ok)
	assert.Equal(t, "generic industry roundup", reason)
}

func TestDetectRoundup(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"top-N m-cap wrap", "8 of top-10 firms add Rs 81,151 crore in m-cap", true},
		{"stocks to watch", "Stocks to watch today: Infosys, TCS, Wipro", true},
		{"nifty wrap", "Nifty wrap: IT stocks lead gains", true},
		{"enumeration", "Infosys, TCS, Wipro, HCL Tech, Tech Mahindra gained today.", true},
		{"single company story", "Infosys wins $1.5 billion deal from Liberty Global", false},
		{"earnings story", "Reliance posts record quarterly profit of Rs 18,000 crore", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := DetectRoundup(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasSymbolToken(t *testing.T) {
	assert.True(t, hasSymbolToken("TCS wins mega deal", "TCS"))
	assert.True(t, hasSymbolToken("Deal win boosts TCS", "TCS"))
	// Embedded occurrences do not count
	assert.False(t, hasSymbolToken("ATCSB industries expands", "TCS"))
	// One-letter codes are ignored entirely
	assert.False(t, hasSymbolToken("A big day for markets", "A"))
}
