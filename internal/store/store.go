// Package store persists scorecards and aggregated metrics behind a driver
// interface with SQLite and Postgres backends.
package store

import (
	"context"
	"time"

	"github.com/sells-group/visibility-engine/internal/model"
)

// ScorecardFilter specifies criteria for listing scorecards.
type ScorecardFilter struct {
	PromptID     string                `json:"prompt_id,omitempty"`
	ProviderID   string                `json:"provider_id,omitempty"`
	TopicID      string                `json:"topic_id,omitempty"`
	PersonaID    string                `json:"persona_id,omitempty"`
	Status       model.ScorecardStatus `json:"status,omitempty"`
	CreatedAfter time.Time             `json:"created_after,omitempty"`
	Limit        int                   `json:"limit,omitempty"`
	Offset       int                   `json:"offset,omitempty"`
}

// Store defines the persistence interface for the testing engine.
type Store interface {
	// Scorecards
	SaveScorecards(ctx context.Context, cards []model.ProviderScorecard) error
	ListScorecards(ctx context.Context, filter ScorecardFilter) ([]model.ProviderScorecard, error)

	// Aggregated metrics, keyed by scope
	UpsertMetric(ctx context.Context, metric model.AggregatedMetric) error
	GetMetric(ctx context.Context, scope model.Scope) (*model.AggregatedMetric, error)
	ListMetrics(ctx context.Context) ([]model.AggregatedMetric, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
