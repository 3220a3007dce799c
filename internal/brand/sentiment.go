package brand

import (
	"strings"

	"github.com/sells-group/visibility-engine/internal/model"
)

// Sentiment labels the tone of the sentence window around the first
// mention: the mention sentence plus its immediate neighbors. A simple
// lexicon count decides the label; ties and lexicon misses are neutral.
func (m *Matcher) Sentiment(sentences []string, firstPosition int) model.SentimentLabel {
	if firstPosition < 1 || firstPosition > len(sentences) {
		return model.SentimentNeutral
	}

	lo := firstPosition - 2 // window start, 0-based
	if lo < 0 {
		lo = 0
	}
	hi := firstPosition + 1 // window end (exclusive), 0-based
	if hi > len(sentences) {
		hi = len(sentences)
	}

	window := foldText(strings.Join(sentences[lo:hi], " "))

	pos, neg := 0, 0
	for _, w := range m.positiveWords() {
		pos += strings.Count(window, foldText(w))
	}
	for _, w := range m.negativeWords() {
		neg += strings.Count(window, foldText(w))
	}

	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func (m *Matcher) positiveWords() []string {
	if len(m.cfg.PositiveWords) > 0 {
		return m.cfg.PositiveWords
	}
	return DefaultConfig().PositiveWords
}

func (m *Matcher) negativeWords() []string {
	if len(m.cfg.NegativeWords) > 0 {
		return m.cfg.NegativeWords
	}
	return DefaultConfig().NegativeWords
}
