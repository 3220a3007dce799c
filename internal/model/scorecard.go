package model

import "time"

// ScorecardStatus represents the terminal state of one prompt × provider test.
type ScorecardStatus string

const (
	ScorecardStatusCompleted ScorecardStatus = "completed"
	ScorecardStatusFailed    ScorecardStatus = "failed"
)

// FailureReason is a machine-readable classification of a provider failure.
// The reporting layer uses it to distinguish "an error occurred" from
// "no data yet", so free-text messages alone are not enough.
type FailureReason string

const (
	FailureRateLimited       FailureReason = "rate_limited"
	FailureServerError       FailureReason = "server_error"
	FailureNetwork           FailureReason = "network"
	FailureTimeout           FailureReason = "timeout"
	FailureUnauthorized      FailureReason = "unauthorized"
	FailureInvalidRequest    FailureReason = "invalid_request"
	FailureMalformedResponse FailureReason = "malformed_response"
	FailureCircuitOpen       FailureReason = "circuit_open"
	FailureCanceled          FailureReason = "canceled"
)

// CitationClass classifies who a citation link points at.
type CitationClass string

const (
	CitationOwned      CitationClass = "owned"
	CitationCompetitor CitationClass = "competitor"
	CitationThirdParty CitationClass = "third_party"
	CitationUnknown    CitationClass = "unknown"
)

// Citation is a single hyperlink extracted from a provider response.
type Citation struct {
	URL   string        `json:"url"`
	Text  string        `json:"text,omitempty"`
	Class CitationClass `json:"class"`
}

// SentimentLabel is the coarse sentiment of the text around a mention.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// BrandMetric holds the per-brand analysis of one provider response.
// FirstPosition is the 1-based rank of the first sentence containing a
// mention; it is nil exactly when Mentioned is false.
type BrandMetric struct {
	BrandName     string         `json:"brand_name"`
	Mentioned     bool           `json:"mentioned"`
	MentionCount  int            `json:"mention_count"`
	FirstPosition *int           `json:"first_position,omitempty"`
	DepthWords    int            `json:"depth_words"`
	IsOwner       bool           `json:"is_owner"`
	Citations     []Citation     `json:"citations,omitempty"`
	Confidence    float64        `json:"confidence"`
	Sentiment     SentimentLabel `json:"sentiment"`
}

// ProviderScorecard is the structured result of testing one prompt against
// one provider. It is created once by the orchestrator and never mutated:
// failed attempts are recorded, not overwritten.
type ProviderScorecard struct {
	ID            string          `json:"id"`
	PromptID      string          `json:"prompt_id"`
	TopicID       string          `json:"topic_id,omitempty"`
	PersonaID     string          `json:"persona_id,omitempty"`
	ProviderID    string          `json:"provider_id"`
	Status        ScorecardStatus `json:"status"`
	FailureReason FailureReason   `json:"failure_reason,omitempty"`
	FailureDetail string          `json:"failure_detail,omitempty"`
	ResponseText  string          `json:"response_text,omitempty"`
	WordCount     int             `json:"word_count"`
	LatencyMS     int64           `json:"latency_ms"`
	TokensUsed    int             `json:"tokens_used"`
	// Citations holds every extracted citation, classified. Each tracked
	// brand's metric additionally carries the subset attributed to it;
	// third-party links live only here.
	Citations []Citation      `json:"citations,omitempty"`
	Brands    []BrandMetric   `json:"brands,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SubjectMetric returns the metric for the analysis subject (IsOwner=true),
// or nil when absent (e.g. a failed scorecard).
func (sc *ProviderScorecard) SubjectMetric() *BrandMetric {
	for i := range sc.Brands {
		if sc.Brands[i].IsOwner {
			return &sc.Brands[i]
		}
	}
	return nil
}

// Completed reports whether the scorecard carries a usable response.
func (sc *ProviderScorecard) Completed() bool {
	return sc.Status == ScorecardStatusCompleted
}
