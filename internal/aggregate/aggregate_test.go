package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-engine/internal/model"
)

func intPtr(v int) *int { return &v }

// card builds a completed scorecard with a subject metric.
func card(providerID, topicID string, mentioned bool, firstPos, depthWords, wordCount int, sentiment model.SentimentLabel, citations, subjectCitations int) model.ProviderScorecard {
	subject := model.BrandMetric{
		BrandName: "MongoDB",
		Mentioned: mentioned,
		IsOwner:   true,
		Sentiment: sentiment,
	}
	if mentioned {
		subject.MentionCount = 1
		subject.FirstPosition = intPtr(firstPos)
		subject.DepthWords = depthWords
	}
	for i := 0; i < subjectCitations; i++ {
		subject.Citations = append(subject.Citations, model.Citation{URL: "https://mongodb.com/x", Class: model.CitationOwned})
	}

	competitor := model.BrandMetric{BrandName: "PostgreSQL"}
	for i := subjectCitations; i < citations; i++ {
		competitor.Citations = append(competitor.Citations, model.Citation{URL: "https://postgresql.org/y", Class: model.CitationCompetitor})
	}

	return model.ProviderScorecard{
		ID:         providerID + "-" + topicID,
		PromptID:   "p1",
		TopicID:    topicID,
		ProviderID: providerID,
		Status:     model.ScorecardStatusCompleted,
		WordCount:  wordCount,
		Brands:     []model.BrandMetric{subject, competitor},
		CreatedAt:  time.Now().UTC(),
	}
}

func failedCard(providerID string) model.ProviderScorecard {
	return model.ProviderScorecard{
		ID:            providerID + "-failed",
		ProviderID:    providerID,
		Status:        model.ScorecardStatusFailed,
		FailureReason: model.FailureUnauthorized,
	}
}

func TestAggregate_VisibilityCountsCompletedOnly(t *testing.T) {
	agg := New(Config{MinSampleVisibility: 1, MinSampleCitation: 1}) // no smoothing

	cards := []model.ProviderScorecard{
		card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0),
		card("b", "t1", false, 0, 0, 100, model.SentimentNeutral, 0, 0),
		failedCard("c"),
	}

	m := agg.Aggregate(cards, model.Scope{Kind: model.ScopeOverall})
	assert.Equal(t, 2, m.SampleSize)
	assert.InDelta(t, 50.0, m.VisibilityScore, 0.001)
}

func TestAggregate_FullVisibilityWithoutSmoothingIs100(t *testing.T) {
	agg := New(Config{MinSampleVisibility: 1, MinSampleCitation: 1})

	var cards []model.ProviderScorecard
	for i := 0; i < 5; i++ {
		cards = append(cards, card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0))
	}

	m := agg.Aggregate(cards, model.Scope{Kind: model.ScopeOverall})
	assert.InDelta(t, 100.0, m.VisibilityScore, 0.001)
	assert.LessOrEqual(t, m.VisibilityCI.High, 100.0)
}

func TestAggregate_SmoothingPullsSmallSamplesTowardPrior(t *testing.T) {
	agg := New(DefaultConfig())

	one := []model.ProviderScorecard{card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0)}
	m := agg.Aggregate(one, model.Scope{Kind: model.ScopeOverall})

	// Raw visibility is 100%, but n=1 is far below the smoothing threshold.
	assert.Less(t, m.VisibilityScore, 100.0)
	assert.Greater(t, m.VisibilityScore, 50.0)
}

func TestAggregate_SmoothingConvergesToRawEstimate(t *testing.T) {
	agg := New(DefaultConfig())

	var small, large []model.ProviderScorecard
	for i := 0; i < 5; i++ {
		small = append(small, card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0))
	}
	for i := 0; i < 200; i++ {
		large = append(large, card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0))
	}

	mSmall := agg.Aggregate(small, model.Scope{Kind: model.ScopeOverall})
	mLarge := agg.Aggregate(large, model.Scope{Kind: model.ScopeOverall})

	assert.Greater(t, mLarge.VisibilityScore, mSmall.VisibilityScore)
	assert.InDelta(t, 100.0, mLarge.VisibilityScore, 0.001) // above threshold: raw
}

func TestAggregate_EmptyScopeIsAllZeros(t *testing.T) {
	agg := New(DefaultConfig())

	m := agg.Aggregate(nil, model.Scope{Kind: model.ScopeOverall})
	assert.Zero(t, m.SampleSize)
	assert.Zero(t, m.VisibilityScore)
	assert.Zero(t, m.DepthOfMention)
	assert.Zero(t, m.CitationShare)
	assert.Zero(t, m.SentimentScore)
	assert.Nil(t, m.AveragePosition)
	assert.Equal(t, model.Interval{}, m.VisibilityCI)
}

func TestAggregate_AveragePosition(t *testing.T) {
	agg := New(Config{MinSampleVisibility: 1, MinSampleCitation: 1})

	cards := []model.ProviderScorecard{
		card("a", "t1", true, 2, 10, 100, model.SentimentNeutral, 0, 0),
		card("b", "t1", true, 4, 10, 100, model.SentimentNeutral, 0, 0),
		card("c", "t1", false, 0, 0, 100, model.SentimentNeutral, 0, 0),
	}

	m := agg.Aggregate(cards, model.Scope{Kind: model.ScopeOverall})
	require.NotNil(t, m.AveragePosition)
	assert.InDelta(t, 3.0, *m.AveragePosition, 0.001)
}

func TestAggregate_DepthWeightsEarlierMentionsHigher(t *testing.T) {
	agg := New(Config{MinSampleVisibility: 1, MinSampleCitation: 1})

	early := []model.ProviderScorecard{card("a", "t1", true, 1, 20, 100, model.SentimentNeutral, 0, 0)}
	late := []model.ProviderScorecard{card("a", "t1", true, 8, 20, 100, model.SentimentNeutral, 0, 0)}

	mEarly := agg.Aggregate(early, model.Scope{Kind: model.ScopeOverall})
	mLate := agg.Aggregate(late, model.Scope{Kind: model.ScopeOverall})

	assert.Greater(t, mEarly.DepthOfMention, mLate.DepthOfMention)
	// Position 1 carries full weight: 20/100.
	assert.InDelta(t, 20.0, mEarly.DepthOfMention, 0.001)
}

func TestAggregate_CitationShare(t *testing.T) {
	agg := New(Config{MinSampleVisibility: 1, MinSampleCitation: 1})

	// 2 subject citations out of 5 tracked-brand citations.
	cards := []model.ProviderScorecard{
		card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 3, 1),
		card("b", "t1", true, 1, 10, 100, model.SentimentNeutral, 2, 1),
	}

	m := agg.Aggregate(cards, model.Scope{Kind: model.ScopeOverall})
	assert.InDelta(t, 40.0, m.CitationShare, 0.001)
}

func TestAggregate_SentimentScore(t *testing.T) {
	agg := New(Config{MinSampleVisibility: 1, MinSampleCitation: 1})

	cards := []model.ProviderScorecard{
		card("a", "t1", true, 1, 10, 100, model.SentimentPositive, 0, 0),
		card("b", "t1", true, 1, 10, 100, model.SentimentPositive, 0, 0),
		card("c", "t1", true, 1, 10, 100, model.SentimentNegative, 0, 0),
		card("d", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0),
	}

	// Neutral mentions are not sentiment-bearing: (2-1)/3.
	m := agg.Aggregate(cards, model.Scope{Kind: model.ScopeOverall})
	assert.InDelta(t, 100.0/3.0, m.SentimentScore, 0.001)
}

func TestAggregate_ScopeFiltering(t *testing.T) {
	agg := New(Config{MinSampleVisibility: 1, MinSampleCitation: 1})

	cards := []model.ProviderScorecard{
		card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0),
		card("b", "t2", false, 0, 0, 100, model.SentimentNeutral, 0, 0),
	}

	m := agg.Aggregate(cards, model.Scope{Kind: model.ScopeTopic, ID: "t1"})
	assert.Equal(t, 1, m.SampleSize)
	assert.InDelta(t, 100.0, m.VisibilityScore, 0.001)

	m = agg.Aggregate(cards, model.Scope{Kind: model.ScopePlatform, ID: "b"})
	assert.Equal(t, 1, m.SampleSize)
	assert.Zero(t, m.VisibilityScore)
}

func TestAggregateAll_DiscoversScopes(t *testing.T) {
	agg := New(DefaultConfig())

	cards := []model.ProviderScorecard{
		card("a", "t1", true, 1, 10, 100, model.SentimentNeutral, 0, 0),
		card("b", "t2", false, 0, 0, 100, model.SentimentNeutral, 0, 0),
	}
	cards[0].PersonaID = "dev"

	metrics := agg.AggregateAll(cards)

	keys := make([]string, 0, len(metrics))
	for _, m := range metrics {
		keys = append(keys, m.Scope.Key())
	}
	assert.Equal(t, []string{"overall", "platform:a", "platform:b", "topic:t1", "topic:t2", "persona:dev"}, keys)
}

func TestWilson_Bounds(t *testing.T) {
	lo, hi := wilson(0.5, 20)
	assert.Greater(t, lo, 0.0)
	assert.Less(t, lo, 0.5)
	assert.Greater(t, hi, 0.5)
	assert.Less(t, hi, 1.0)

	lo, hi = wilson(0, 0)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	// Degenerate proportions stay clamped to [0,1].
	lo, hi = wilson(1, 3)
	assert.GreaterOrEqual(t, lo, 0.0)
	assert.LessOrEqual(t, hi, 1.0)

	// The interval narrows as n grows.
	loSmall, hiSmall := wilson(0.5, 10)
	loLarge, hiLarge := wilson(0.5, 1000)
	assert.Greater(t, hiSmall-loSmall, hiLarge-loLarge)
}

func TestSmooth_NeutralPriorBlend(t *testing.T) {
	// n=1 at 100% is pulled well below 100%.
	got := smooth(1.0, 1, 0.5, 4)
	assert.InDelta(t, 0.6, got, 0.001)

	// Large n converges to the raw value.
	assert.InDelta(t, 1.0, smooth(1.0, 10000, 0.5, 4), 0.001)

	assert.Zero(t, smooth(1.0, 0, 0.5, 4))
}
