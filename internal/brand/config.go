// Package brand implements generic brand-mention matching and citation
// ownership classification. Behavior depends only on the brand name and
// domain supplied by the caller; there is no per-brand branch logic.
package brand

// Per-strategy confidence values. The cascade tries strategies in order and
// the first hit wins, so confidence is fixed by which strategy matched, not
// recomputed per text.
const (
	confExact   = 1.0
	confAcronym = 0.9
	confDomain  = 0.8
	confPartial = 0.85

	// Fuzzy confidence scales with closeness between these bounds.
	confFuzzyMin = 0.7
	confFuzzyMax = 0.9
)

// Config holds the matcher's tunables. The fuzzy threshold and the sentiment
// lexicon are empirically tuned; treat the defaults as a starting point and
// verify against representative sample brands before changing them.
type Config struct {
	// FuzzyThreshold is the minimum Levenshtein similarity (0–1) for a
	// near-miss spelling to count as a mention. Default: 0.82.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`

	// MinFuzzyLength disables fuzzy matching for brand names shorter than
	// this, where edit distance produces false positives. Default: 5.
	MinFuzzyLength int `yaml:"min_fuzzy_length" mapstructure:"min_fuzzy_length"`

	// MinPartialTokenLength is the minimum length of a significant token
	// considered for partial matching of multi-word names. Default: 4.
	MinPartialTokenLength int `yaml:"min_partial_token_length" mapstructure:"min_partial_token_length"`

	// PositiveWords and NegativeWords drive the sentence-level sentiment
	// label around a mention.
	PositiveWords []string `yaml:"positive_words" mapstructure:"positive_words"`
	NegativeWords []string `yaml:"negative_words" mapstructure:"negative_words"`
}

// DefaultConfig returns the documented default tunables.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:        0.82,
		MinFuzzyLength:        5,
		MinPartialTokenLength: 4,
		PositiveWords: []string{
			"best", "leading", "excellent", "powerful", "reliable", "popular",
			"recommended", "robust", "fast", "flexible", "mature", "strong",
			"top", "innovative", "trusted",
		},
		NegativeWords: []string{
			"worst", "slow", "unreliable", "expensive", "limited", "outdated",
			"poor", "weak", "lacking", "difficult", "avoid", "deprecated",
			"problematic", "buggy",
		},
	}
}

// genericSuffixes are corporate suffixes ignored when deriving acronyms and
// significant tokens from a brand name.
var genericSuffixes = map[string]bool{
	"inc":          true,
	"llc":          true,
	"ltd":          true,
	"corp":         true,
	"co":           true,
	"company":      true,
	"corporation":  true,
	"technologies": true,
	"technology":   true,
	"software":     true,
	"labs":         true,
	"group":        true,
	"holdings":     true,
	"gmbh":         true,
	"sa":           true,
	"ag":           true,
	"plc":          true,
}
