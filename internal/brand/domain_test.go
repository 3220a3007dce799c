package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/visibility-engine/internal/model"
)

func TestDomainVariants(t *testing.T) {
	assert.Equal(t, []string{"mongodb.com", "www.mongodb.com", "mongodb"}, DomainVariants("mongodb.com"))
	assert.Equal(t, []string{"mongodb.com", "www.mongodb.com", "mongodb"}, DomainVariants("https://www.MongoDB.com/"))
	assert.Nil(t, DomainVariants(""))
	assert.Nil(t, DomainVariants("   "))
}

func TestClassifyCitation(t *testing.T) {
	competitors := []string{"postgresql.org", "mysql.com"}

	tests := []struct {
		name string
		url  string
		want model.CitationClass
	}{
		{"owned exact", "https://mongodb.com/pricing", model.CitationOwned},
		{"owned www", "https://www.mongodb.com/docs", model.CitationOwned},
		{"owned subdomain", "https://docs.mongodb.com/manual", model.CitationOwned},
		{"competitor", "https://postgresql.org/docs", model.CitationCompetitor},
		{"competitor second", "http://mysql.com", model.CitationCompetitor},
		{"third party", "https://news.ycombinator.com/item?id=1", model.CitationThirdParty},
		{"lookalike host is not owned", "https://notmongodb.com/x", model.CitationThirdParty},
		{"unparsable", "://", model.CitationUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCitation(tt.url, "mongodb.com", competitors)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSentiment(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	positive := SplitSentences("MongoDB is a leading database. It is reliable and fast.")
	assert.Equal(t, model.SentimentPositive, m.Sentiment(positive, 1))

	negative := SplitSentences("MongoDB felt slow in our tests. Support was poor too.")
	assert.Equal(t, model.SentimentNegative, m.Sentiment(negative, 1))

	neutral := SplitSentences("MongoDB stores documents. It uses BSON internally.")
	assert.Equal(t, model.SentimentNeutral, m.Sentiment(neutral, 1))
}

func TestSentiment_WindowIsNeighborSentences(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	// The mention sentence is neutral but its neighbor carries the tone.
	sentences := SplitSentences("Many options exist. MongoDB stores documents. It is reliable and trusted.")
	assert.Equal(t, model.SentimentPositive, m.Sentiment(sentences, 2))

	// Out-of-range positions are neutral.
	assert.Equal(t, model.SentimentNeutral, m.Sentiment(sentences, 0))
	assert.Equal(t, model.SentimentNeutral, m.Sentiment(sentences, 9))
}
