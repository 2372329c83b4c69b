package dedup

import (
	"strings"
	"unicode"
)

// stopwords excluded from headline token comparison; they carry no
// discriminating signal and inflate overlap between unrelated headlines.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"the": true, "to": true, "with": true, "after": true, "over": true,
}

// Tokenize normalizes a headline into a comparison token set: lowercase,
// punctuation stripped, stopwords removed.
func Tokenize(headline string) map[string]bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, headline)

	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > 1 && !stopwords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// OverlapRatio returns the token-overlap ratio of two token sets: the size
// of the intersection over the size of the smaller set. Two headlines that
// differ only in a suffix still score high, which is the point.
func OverlapRatio(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	smaller, larger := a, b
	if len(b) < len(a) {
		smaller, larger = b, a
	}

	common := 0
	for tok := range smaller {
		if larger[tok] {
			common++
		}
	}

	return float64(common) / float64(len(smaller))
}

// Similar reports whether two headlines overlap at or above the threshold.
func Similar(a, b string, threshold float64) bool {
	return OverlapRatio(Tokenize(a), Tokenize(b)) >= threshold
}
