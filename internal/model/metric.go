package model

import (
	"fmt"
	"time"
)

// ScopeKind is the aggregation granularity.
type ScopeKind string

const (
	ScopeOverall  ScopeKind = "overall"
	ScopePlatform ScopeKind = "platform"
	ScopeTopic    ScopeKind = "topic"
	ScopePersona  ScopeKind = "persona"
)

// Scope selects the subset of scorecards an AggregatedMetric describes.
// ID is empty for the overall scope.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// Key renders the scope as a stable string, e.g. "overall" or "topic:t1".
// Used as the storage key and the per-scope serialization key.
func (s Scope) Key() string {
	if s.Kind == ScopeOverall {
		return string(ScopeOverall)
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// Matches reports whether a scorecard falls inside the scope.
func (s Scope) Matches(sc ProviderScorecard) bool {
	switch s.Kind {
	case ScopeOverall:
		return true
	case ScopePlatform:
		return sc.ProviderID == s.ID
	case ScopeTopic:
		return sc.TopicID == s.ID
	case ScopePersona:
		return sc.PersonaID == s.ID
	default:
		return false
	}
}

// Interval is a 95% confidence interval around a smoothed estimate, on the
// same 0–100 scale as the point value it accompanies.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// AggregatedMetric is the per-scope rollup of many scorecards. It is
// recomputed wholesale from the full scorecard set on every aggregation run,
// never incrementally patched, so it is always internally consistent with
// its inputs.
type AggregatedMetric struct {
	Scope            Scope     `json:"scope"`
	SampleSize       int       `json:"sample_size"`
	VisibilityScore  float64   `json:"visibility_score"` // 0–100
	VisibilityCI     Interval  `json:"visibility_ci"`
	AveragePosition  *float64  `json:"average_position,omitempty"`
	DepthOfMention   float64   `json:"depth_of_mention"` // 0–100
	DepthCI          Interval  `json:"depth_ci"`
	CitationShare    float64   `json:"citation_share"` // 0–100
	CitationCI       Interval  `json:"citation_ci"`
	SentimentScore   float64   `json:"sentiment_score"` // -100..100
	LastCalculatedAt time.Time `json:"last_calculated_at"`
}
