// Package summary produces the dashboard headline numbers for one batch of
// scorecards, typically the results of a single prompt test run.
package summary

import (
	"sort"

	"github.com/sells-group/visibility-engine/internal/model"
)

// ProviderAverage is one provider's mean score across a batch.
type ProviderAverage struct {
	ProviderID string  `json:"provider_id"`
	Average    float64 `json:"average"`
	Samples    int     `json:"samples"`
}

// Result holds the batch-level headline metrics. All values are computed
// from completed scorecards only; failed cards affect nothing here.
type Result struct {
	AvgVisibility      float64           `json:"avg_visibility"`       // 0–100
	AvgOverallScore    float64           `json:"avg_overall_score"`    // 0–100
	MentionRate        float64           `json:"mention_rate"`         // 0–1
	BestProvider       string            `json:"best_provider"`
	WorstProvider      string            `json:"worst_provider"`
	PerProviderAverage []ProviderAverage `json:"per_provider_average"`
}

// overallScore blends mention presence, prominence and citation ownership
// into a single 0–100 number for one completed scorecard.
func overallScore(sc *model.ProviderScorecard) float64 {
	subject := sc.SubjectMetric()
	if subject == nil || !subject.Mentioned {
		return 0
	}

	score := 50.0 // base for being mentioned at all

	// Earlier first mentions earn up to 30 points.
	if subject.FirstPosition != nil {
		pos := *subject.FirstPosition
		if pos < 1 {
			pos = 1
		}
		if pos > 10 {
			pos = 10
		}
		score += 30 * float64(10-pos+1) / 10
	}

	// Owned citations earn up to 20 points.
	if n := len(subject.Citations); n > 0 {
		if n > 4 {
			n = 4
		}
		score += 5 * float64(n)
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Summarize computes the batch summary. An empty or all-failed batch yields
// zero values and "none" for both provider slots so callers never branch on
// missing fields. Provider ties break toward the lexically smaller ID.
func Summarize(cards []model.ProviderScorecard) Result {
	res := Result{BestProvider: "none", WorstProvider: "none"}

	type acc struct {
		sum float64
		n   int
	}
	perProvider := map[string]*acc{}

	completed := 0
	mentionedCount := 0
	scoreSum := 0.0

	for i := range cards {
		sc := &cards[i]
		if !sc.Completed() {
			continue
		}
		completed++

		score := overallScore(sc)
		scoreSum += score

		if subject := sc.SubjectMetric(); subject != nil && subject.Mentioned {
			mentionedCount++
		}

		a, ok := perProvider[sc.ProviderID]
		if !ok {
			a = &acc{}
			perProvider[sc.ProviderID] = a
		}
		a.sum += score
		a.n++
	}

	if completed == 0 {
		return res
	}

	res.MentionRate = float64(mentionedCount) / float64(completed)
	res.AvgVisibility = res.MentionRate * 100
	res.AvgOverallScore = scoreSum / float64(completed)

	ids := make([]string, 0, len(perProvider))
	for id := range perProvider {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := perProvider[id]
		res.PerProviderAverage = append(res.PerProviderAverage, ProviderAverage{
			ProviderID: id,
			Average:    a.sum / float64(a.n),
			Samples:    a.n,
		})
	}

	best, worst := res.PerProviderAverage[0], res.PerProviderAverage[0]
	for _, pa := range res.PerProviderAverage[1:] {
		if pa.Average > best.Average {
			best = pa
		}
		if pa.Average < worst.Average {
			worst = pa
		}
	}
	res.BestProvider = best.ProviderID
	res.WorstProvider = worst.ProviderID

	return res
}
