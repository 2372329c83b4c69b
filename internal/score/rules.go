package score

// Rule is one declarative certainty bonus or penalty: Hits counts how many
// times it applies, Points is the contribution per hit, Cap bounds the
// total contribution. Negative Points with a negative Cap express a
// penalty. Keeping scoring as a rule list makes every point traceable and
// each rule testable on its own.
type Rule struct {
	Name   string
	Points float64
	Cap    float64 // 0 = uncapped
	Hits   func(f *Features) int
}

// BaseCertainty-relative contribution of a rule for the given features.
func (r Rule) Contribution(f *Features) float64 {
	contribution := float64(r.Hits(f)) * r.Points
	if r.Cap != 0 {
		if r.Points > 0 && contribution > r.Cap {
			contribution = r.Cap
		}
		if r.Points < 0 && contribution < r.Cap {
			contribution = r.Cap
		}
	}
	return contribution
}

// DefaultRules is the tuned certainty rule set. The weights are starting
// points carried over from production observation, not proven optima.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "confirmed-catalyst-category",
			Points: 20,
			Cap:    40,
			Hits:   func(f *Features) int { return len(f.Categories) },
		},
		{
			Name:   "specific-figure",
			Points: 10,
			Cap:    30,
			Hits:   func(f *Features) int { return f.DistinctFigures },
		},
		{
			Name:   "corroborating-source",
			Points: 6,
			Cap:    18,
			Hits:   func(f *Features) int { return f.ExtraSources },
		},
		{
			Name:   "premium-source",
			Points: 4,
			Hits:   func(f *Features) int { return boolToInt(f.PremiumSource) },
		},
		{
			Name:   "recent-within-24h",
			Points: 4,
			Hits:   func(f *Features) int { return boolToInt(f.RecentWithin24h) },
		},
		{
			Name:   "speculative-language",
			Points: -5,
			Cap:    -15,
			Hits:   func(f *Features) int { return f.SpeculativeTokens },
		},
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
