// Package monitoring provides point-in-time health snapshots of the testing
// engine for the status command and the health endpoint.
package monitoring

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-engine/internal/model"
	"github.com/sells-group/visibility-engine/internal/store"
)

// ProviderHealth summarizes one provider's recent scorecards.
type ProviderHealth struct {
	ProviderID string  `json:"provider_id"`
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Failed     int     `json:"failed"`
	FailRate   float64 `json:"fail_rate"`
	// TopFailureReason is the most frequent failure reason in the window,
	// empty when nothing failed.
	TopFailureReason model.FailureReason `json:"top_failure_reason,omitempty"`
	AvgLatencyMS     int64               `json:"avg_latency_ms"`
}

// MetricsSnapshot holds a point-in-time view of engine health.
type MetricsSnapshot struct {
	// Scorecard totals within the lookback window.
	ScorecardTotal     int     `json:"scorecard_total"`
	ScorecardCompleted int     `json:"scorecard_completed"`
	ScorecardFailed    int     `json:"scorecard_failed"`
	ScorecardFailRate  float64 `json:"scorecard_fail_rate"`
	AvgTokensUsed      int     `json:"avg_tokens_used"`

	Providers []ProviderHealth `json:"providers"`

	// Aggregation freshness.
	MetricScopes       int        `json:"metric_scopes"`
	LastAggregationAt  *time.Time `json:"last_aggregation_at,omitempty"`
	AggregationAgeSecs int64      `json:"aggregation_age_secs"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of engine health over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	cards, err := c.store.ListScorecards(ctx, store.ScorecardFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list scorecards")
	}

	type provAcc struct {
		total, completed, failed int
		latencySum               int64
		reasons                  map[model.FailureReason]int
	}
	perProvider := map[string]*provAcc{}
	var totalTokens int

	snap.ScorecardTotal = len(cards)
	for i := range cards {
		sc := &cards[i]
		acc, ok := perProvider[sc.ProviderID]
		if !ok {
			acc = &provAcc{reasons: map[model.FailureReason]int{}}
			perProvider[sc.ProviderID] = acc
		}
		acc.total++
		totalTokens += sc.TokensUsed

		if sc.Completed() {
			snap.ScorecardCompleted++
			acc.completed++
			acc.latencySum += sc.LatencyMS
		} else {
			snap.ScorecardFailed++
			acc.failed++
			if sc.FailureReason != "" {
				acc.reasons[sc.FailureReason]++
			}
		}
	}

	if snap.ScorecardTotal > 0 {
		snap.ScorecardFailRate = float64(snap.ScorecardFailed) / float64(snap.ScorecardTotal)
		snap.AvgTokensUsed = totalTokens / snap.ScorecardTotal
	}

	ids := make([]string, 0, len(perProvider))
	for id := range perProvider {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		acc := perProvider[id]
		ph := ProviderHealth{
			ProviderID:       id,
			Total:            acc.total,
			Completed:        acc.completed,
			Failed:           acc.failed,
			TopFailureReason: topReason(acc.reasons),
		}
		if acc.total > 0 {
			ph.FailRate = float64(acc.failed) / float64(acc.total)
		}
		if acc.completed > 0 {
			ph.AvgLatencyMS = acc.latencySum / int64(acc.completed)
		}
		snap.Providers = append(snap.Providers, ph)
	}

	metrics, err := c.store.ListMetrics(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list metrics")
	}
	snap.MetricScopes = len(metrics)
	for i := range metrics {
		t := metrics[i].LastCalculatedAt
		if snap.LastAggregationAt == nil || t.After(*snap.LastAggregationAt) {
			snap.LastAggregationAt = &t
		}
	}
	if snap.LastAggregationAt != nil {
		snap.AggregationAgeSecs = int64(now.Sub(*snap.LastAggregationAt).Seconds())
	}

	return snap, nil
}

// topReason picks the most frequent failure reason, breaking count ties
// toward the lexically smaller reason so snapshots are deterministic.
func topReason(counts map[model.FailureReason]int) model.FailureReason {
	var best model.FailureReason
	bestCount := 0
	for reason, n := range counts {
		if n > bestCount || (n == bestCount && best != "" && reason < best) {
			best = reason
			bestCount = n
		}
	}
	return best
}
