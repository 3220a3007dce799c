package brand

import "strings"

// SplitSentences breaks text into the ordered segments used for position
// ranking. Splits occur on sentence terminators and blank lines; markdown
// list items count as their own segments since providers lean heavily on
// bullet lists.
func SplitSentences(text string) []string {
	var out []string
	var b strings.Builder

	flush := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		if s != "" {
			out = append(out, s)
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '.', '!', '?':
			// Don't split inside URLs or decimals: require whitespace or
			// end-of-text after the terminator.
			b.WriteRune(r)
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				flush()
			}
		case '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()

	return out
}

// WordCount counts whitespace-separated words, used for response depth
// denominators.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
