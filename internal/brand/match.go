package brand

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// MatchResult is the brand-metric fragment produced by matching one brand
// against one block of text.
type MatchResult struct {
	Mentioned     bool
	Confidence    float64
	FirstPosition *int // 1-based sentence rank of the first mention
	MentionCount  int
	DepthWords    int // words in sentences that mention the brand
	Strategy      string
}

// Matcher evaluates brand mentions in unstructured text.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a Matcher. A zero Config falls back to defaults.
func NewMatcher(cfg Config) *Matcher {
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = DefaultConfig().FuzzyThreshold
	}
	if cfg.MinFuzzyLength <= 0 {
		cfg.MinFuzzyLength = DefaultConfig().MinFuzzyLength
	}
	if cfg.MinPartialTokenLength <= 0 {
		cfg.MinPartialTokenLength = DefaultConfig().MinPartialTokenLength
	}
	return &Matcher{cfg: cfg}
}

// matchFn reports whether one sentence contains a hit and how confident the
// strategy is about it.
type matchFn func(sentence string) bool

type strategy struct {
	name       string
	confidence float64
	match      matchFn
}

// Match runs the strategy cascade against text. Strategies are tried in
// order; the first strategy with at least one sentence hit wins and fixes
// the confidence. A text containing no form of the name or domain yields
// Mentioned=false with zero confidence.
func (m *Matcher) Match(text, brandName, brandDomain string) MatchResult {
	sentences := SplitSentences(text)
	if len(sentences) == 0 || strings.TrimSpace(brandName) == "" {
		return MatchResult{}
	}

	folded := make([]string, len(sentences))
	for i, s := range sentences {
		folded[i] = foldText(s)
	}

	for _, strat := range m.strategies(brandName, brandDomain) {
		if strat.match == nil {
			continue
		}
		if res, ok := scanSentences(sentences, folded, strat.match); ok {
			res.Confidence = strat.confidence
			res.Strategy = strat.name
			return res
		}
	}

	return m.fuzzyMatch(sentences, folded, foldText(brandName))
}

// scanSentences applies a sentence matcher across the text, accumulating
// mention count, first position and depth words.
func scanSentences(sentences, folded []string, match matchFn) (MatchResult, bool) {
	count := 0
	first := 0
	depthWords := 0
	for i, s := range folded {
		if !match(s) {
			continue
		}
		count++
		if first == 0 {
			first = i + 1
		}
		depthWords += len(strings.Fields(sentences[i]))
	}

	if count == 0 {
		return MatchResult{}, false
	}
	pos := first
	return MatchResult{
		Mentioned:     true,
		FirstPosition: &pos,
		MentionCount:  count,
		DepthWords:    depthWords,
	}, true
}

// fuzzyMatch is the last cascade step: near-miss spellings via Levenshtein
// similarity, bounded to names long enough to avoid false positives.
// Confidence scales with the closest match seen.
func (m *Matcher) fuzzyMatch(sentences, folded []string, name string) MatchResult {
	if len(name) < m.cfg.MinFuzzyLength {
		return MatchResult{}
	}

	best := 0.0
	res, ok := scanSentences(sentences, folded, func(sentence string) bool {
		sim := m.bestFuzzySimilarity(sentence, name)
		if sim < m.cfg.FuzzyThreshold {
			return false
		}
		if sim > best {
			best = sim
		}
		return true
	})
	if !ok {
		return MatchResult{}
	}

	res.Confidence = fuzzyConfidence(best, m.cfg.FuzzyThreshold)
	res.Strategy = "fuzzy"
	return res
}

// strategies builds the ordered cascade for one brand. Fuzzy matching is
// appended by Match itself because its confidence depends on the text.
func (m *Matcher) strategies(brandName, brandDomain string) []strategy {
	name := foldText(brandName)

	return []strategy{
		{name: "exact", confidence: confExact, match: wordMatcher(name)},
		{name: "acronym", confidence: confAcronym, match: wordMatcher(deriveAcronym(name))},
		{name: "domain", confidence: confDomain, match: anyWordMatcher(DomainVariants(brandDomain))},
		{name: "partial", confidence: confPartial, match: anyWordMatcher(m.significantTokens(name))},
	}
}

// bestFuzzySimilarity slides a window of the brand's word length across the
// sentence and returns the highest Levenshtein similarity seen.
func (m *Matcher) bestFuzzySimilarity(sentence, name string) float64 {
	nameWords := len(strings.Fields(name))
	if nameWords == 0 {
		return 0
	}

	words := strings.Fields(sentence)
	best := 0.0
	for i := 0; i+nameWords <= len(words); i++ {
		window := strings.Join(words[i:i+nameWords], " ")
		window = strings.Trim(window, ".,;:!?()[]{}\"'")
		if window == "" {
			continue
		}
		if sim := levenshtein.Similarity(window, name, nil); sim > best {
			best = sim
		}
	}
	return best
}

// fuzzyConfidence maps similarity in [threshold, 1] onto the configured
// confidence band.
func fuzzyConfidence(sim, threshold float64) float64 {
	if sim >= 1 {
		return confFuzzyMax
	}
	span := 1 - threshold
	if span <= 0 {
		return confFuzzyMin
	}
	return confFuzzyMin + (confFuzzyMax-confFuzzyMin)*(sim-threshold)/span
}

// deriveAcronym builds the initials of a multi-word name with generic
// corporate suffixes stripped. Returns "" when no usable acronym exists.
func deriveAcronym(name string) string {
	words := significantWords(name)
	if len(words) < 2 {
		return ""
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteByte(w[0])
	}
	acronym := b.String()
	if len(acronym) < 2 {
		return ""
	}
	return acronym
}

// significantTokens returns the tokens of a multi-word brand name worth
// matching on their own. Single-word names return nothing — a partial match
// on the only word would duplicate the exact strategy.
func (m *Matcher) significantTokens(name string) []string {
	words := significantWords(name)
	if len(words) < 2 {
		return nil
	}
	var out []string
	for _, w := range words {
		if len(w) >= m.cfg.MinPartialTokenLength {
			out = append(out, w)
		}
	}
	return out
}

// significantWords splits a folded name into words, dropping generic
// corporate suffixes.
func significantWords(name string) []string {
	var out []string
	for _, w := range strings.Fields(name) {
		w = strings.Trim(w, ".,&")
		if w == "" || genericSuffixes[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// wordMatcher returns a matchFn hitting on the term as a whole word,
// or nil for an empty term.
func wordMatcher(term string) matchFn {
	re := wordRegexp(term)
	if re == nil {
		return nil
	}
	return re.MatchString
}

// anyWordMatcher returns a matchFn hitting when any of the terms appears as
// a whole word, or nil when no usable term exists.
func anyWordMatcher(terms []string) matchFn {
	var res []*regexp.Regexp
	for _, t := range terms {
		if re := wordRegexp(foldText(t)); re != nil {
			res = append(res, re)
		}
	}
	if len(res) == 0 {
		return nil
	}
	return func(sentence string) bool {
		for _, re := range res {
			if re.MatchString(sentence) {
				return true
			}
		}
		return false
	}
}

func wordRegexp(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	// Dots in domains must not act as wildcards.
	return regexp.MustCompile(`(?i)(^|[^a-z0-9])` + regexp.QuoteMeta(term) + `($|[^a-z0-9])`)
}

// foldText lowercases and compatibility-normalizes text so that fullwidth
// and composed forms match their plain ASCII spellings.
func foldText(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}
