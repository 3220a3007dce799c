// Package aggregate folds many provider scorecards into per-scope visibility
// metrics with small-sample smoothing and confidence intervals.
package aggregate

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/visibility-engine/internal/model"
)

// Aggregator computes scope-level metrics from scorecard sets. It is safe
// for concurrent use; runs touching the same scope are serialized so a
// half-written rollup is never observable.
type Aggregator struct {
	cfg Config
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Aggregator. Zero-valued config fields fall back to the
// documented defaults.
func New(cfg Config) *Aggregator {
	return &Aggregator{
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// WithNow sets a fixed clock for testing.
func (a *Aggregator) WithNow(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// scopeLock returns the mutex serializing aggregation runs for one scope key.
func (a *Aggregator) scopeLock(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = new(sync.Mutex)
		a.locks[key] = l
	}
	return l
}

// Aggregate recomputes the metric for one scope wholesale from the given
// scorecard set. Failed scorecards count toward nothing; every ratio with a
// zero denominator yields 0, never NaN.
func (a *Aggregator) Aggregate(cards []model.ProviderScorecard, scope model.Scope) model.AggregatedMetric {
	lock := a.scopeLock(scope.Key())
	lock.Lock()
	defer lock.Unlock()

	var (
		completed      int
		mentioned      int
		positionSum    float64
		positionN      int
		depthNum       float64
		depthDen       float64
		subjectCites   int
		trackedCites   int
		posMentions    int
		negMentions    int
	)

	for i := range cards {
		sc := &cards[i]
		if !sc.Completed() || !scope.Matches(*sc) {
			continue
		}
		completed++
		depthDen += float64(sc.WordCount)

		for j := range sc.Brands {
			trackedCites += len(sc.Brands[j].Citations)
		}

		subject := sc.SubjectMetric()
		if subject == nil {
			continue
		}
		subjectCites += len(subject.Citations)

		if !subject.Mentioned {
			continue
		}
		mentioned++
		if subject.FirstPosition != nil {
			positionSum += float64(*subject.FirstPosition)
			positionN++
			depthNum += positionWeight(*subject.FirstPosition, a.cfg.DecayRate) * float64(subject.DepthWords)
		}
		switch subject.Sentiment {
		case model.SentimentPositive:
			posMentions++
		case model.SentimentNegative:
			negMentions++
		}
	}

	metric := model.AggregatedMetric{
		Scope:            scope,
		SampleSize:       completed,
		LastCalculatedAt: a.now().UTC(),
	}

	visibility := ratio(float64(mentioned), float64(completed))
	if completed > 0 && completed < a.cfg.MinSampleVisibility {
		visibility = smooth(visibility, completed, a.cfg.NeutralPrior, a.cfg.PriorWeight)
	}
	lo, hi := wilson(visibility, completed)
	metric.VisibilityScore = visibility * 100
	metric.VisibilityCI = model.Interval{Low: lo * 100, High: hi * 100}

	depth := ratio(depthNum, depthDen)
	if completed > 0 && completed < a.cfg.MinSampleVisibility {
		depth = smooth(depth, completed, a.cfg.NeutralPrior, a.cfg.PriorWeight)
	}
	lo, hi = wilson(depth, completed)
	metric.DepthOfMention = depth * 100
	metric.DepthCI = model.Interval{Low: lo * 100, High: hi * 100}

	share := ratio(float64(subjectCites), float64(trackedCites))
	if completed > 0 && completed < a.cfg.MinSampleCitation {
		share = smooth(share, completed, a.cfg.NeutralPrior, a.cfg.PriorWeight)
	}
	lo, hi = wilson(share, completed)
	metric.CitationShare = share * 100
	metric.CitationCI = model.Interval{Low: lo * 100, High: hi * 100}

	if positionN > 0 {
		avg := positionSum / float64(positionN)
		metric.AveragePosition = &avg
	}

	sentimentBearing := posMentions + negMentions
	metric.SentimentScore = ratio(float64(posMentions-negMentions), float64(sentimentBearing)) * 100

	return metric
}

// AggregateAll discovers every scope present in the scorecard set (overall,
// plus one per distinct provider, topic and persona) and recomputes each.
// Results come back in a stable order: overall first, then by scope key.
func (a *Aggregator) AggregateAll(cards []model.ProviderScorecard) []model.AggregatedMetric {
	scopes := discoverScopes(cards)

	metrics := make([]model.AggregatedMetric, 0, len(scopes))
	for _, scope := range scopes {
		metrics = append(metrics, a.Aggregate(cards, scope))
	}

	zap.L().Info("aggregation run complete",
		zap.Int("scorecards", len(cards)),
		zap.Int("scopes", len(scopes)),
	)
	return metrics
}

// discoverScopes enumerates the distinct scopes a scorecard set spans.
func discoverScopes(cards []model.ProviderScorecard) []model.Scope {
	providers := map[string]struct{}{}
	topics := map[string]struct{}{}
	personas := map[string]struct{}{}

	for i := range cards {
		if cards[i].ProviderID != "" {
			providers[cards[i].ProviderID] = struct{}{}
		}
		if cards[i].TopicID != "" {
			topics[cards[i].TopicID] = struct{}{}
		}
		if cards[i].PersonaID != "" {
			personas[cards[i].PersonaID] = struct{}{}
		}
	}

	scopes := []model.Scope{{Kind: model.ScopeOverall}}
	scopes = append(scopes, scopesOf(model.ScopePlatform, providers)...)
	scopes = append(scopes, scopesOf(model.ScopeTopic, topics)...)
	scopes = append(scopes, scopesOf(model.ScopePersona, personas)...)
	return scopes
}

func scopesOf(kind model.ScopeKind, ids map[string]struct{}) []model.Scope {
	out := make([]model.Scope, 0, len(ids))
	for id := range ids {
		out = append(out, model.Scope{Kind: kind, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
