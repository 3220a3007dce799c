package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_ExactName(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	res := m.Match("MongoDB is a document database.", "MongoDB", "mongodb.com")

	assert.True(t, res.Mentioned)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, "exact", res.Strategy)
	require.NotNil(t, res.FirstPosition)
	assert.Equal(t, 1, *res.FirstPosition)
	assert.Equal(t, 1, res.MentionCount)
}

func TestMatch_CaseInsensitive(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	res := m.Match("many teams run MONGODB in production.", "MongoDB", "")
	assert.True(t, res.Mentioned)
	assert.Equal(t, "exact", res.Strategy)
}

func TestMatch_WordBoundaries(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	// "Ion" inside "motion" is not a mention, and the name is too short for
	// fuzzy matching to kick in.
	res := m.Match("The motion passed unanimously.", "Ion", "")
	assert.False(t, res.Mentioned)
	assert.Zero(t, res.Confidence)
	assert.Nil(t, res.FirstPosition)
}

func TestMatch_Acronym(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	res := m.Match("GM builds electric vehicles now.", "General Motors", "gm.com")

	assert.True(t, res.Mentioned)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Equal(t, "acronym", res.Strategy)
}

func TestMatch_DomainVariant(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	// Neither the full name nor its acronym appears, but the domain does.
	res := m.Match("Check mongodb.com for current pricing.", "Mongo Database Inc", "mongodb.com")

	assert.True(t, res.Mentioned)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Equal(t, "domain", res.Strategy)
}

func TestMatch_PartialToken(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	res := m.Match("Acme was founded in 1999.", "Acme Analytics", "")

	assert.True(t, res.Mentioned)
	assert.Equal(t, 0.85, res.Confidence)
	assert.Equal(t, "partial", res.Strategy)
}

func TestMatch_FuzzySpelling(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	res := m.Match("Many teams choose Snowflke for warehousing.", "Snowflake", "")

	assert.True(t, res.Mentioned)
	assert.Equal(t, "fuzzy", res.Strategy)
	assert.GreaterOrEqual(t, res.Confidence, 0.7)
	assert.LessOrEqual(t, res.Confidence, 0.9)
}

func TestMatch_FuzzySkippedForShortNames(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	// "Riak" vs "Rack" would be similar enough, but 4-letter names are below
	// the fuzzy length floor.
	res := m.Match("Put it on the Rack.", "Riak", "")
	assert.False(t, res.Mentioned)
}

func TestMatch_NotMentioned(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	res := m.Match("PostgreSQL and MySQL are relational databases.", "MongoDB", "mongodb.com")

	assert.False(t, res.Mentioned)
	assert.Zero(t, res.Confidence)
	assert.Nil(t, res.FirstPosition)
	assert.Zero(t, res.MentionCount)
	assert.Zero(t, res.DepthWords)
}

func TestMatch_FirstPositionIsSentenceRank(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	text := "Databases matter for analytics. MongoDB is a leading document database. Many teams use it daily."
	res := m.Match(text, "MongoDB", "")

	require.NotNil(t, res.FirstPosition)
	assert.Equal(t, 2, *res.FirstPosition)
	assert.Equal(t, 1, res.MentionCount)
	// Depth counts the words of the mentioning sentence only.
	assert.Equal(t, 6, res.DepthWords)
}

func TestMatch_AccumulatesAcrossSentences(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	text := "MongoDB is popular. Some prefer PostgreSQL. MongoDB also offers Atlas."
	res := m.Match(text, "MongoDB", "")

	assert.Equal(t, 2, res.MentionCount)
	require.NotNil(t, res.FirstPosition)
	assert.Equal(t, 1, *res.FirstPosition)
	assert.Equal(t, 3+4, res.DepthWords)
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	assert.False(t, m.Match("", "MongoDB", "").Mentioned)
	assert.False(t, m.Match("Some text here.", "", "").Mentioned)
}

func TestDeriveAcronym(t *testing.T) {
	assert.Equal(t, "gm", deriveAcronym("general motors"))
	assert.Equal(t, "ibm", deriveAcronym("international business machines corp"))
	// Single significant word: no acronym.
	assert.Equal(t, "", deriveAcronym("mongodb"))
	assert.Equal(t, "", deriveAcronym("acme inc"))
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First sentence. Second one! Third?\nFourth on a new line")
	assert.Equal(t, []string{"First sentence.", "Second one!", "Third?", "Fourth on a new line"}, got)
}

func TestSplitSentences_KeepsURLsIntact(t *testing.T) {
	got := SplitSentences("See https://mongodb.com/pricing for details. Second sentence.")
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "mongodb.com/pricing")
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 4, WordCount("  one two  three four \n"))
}
