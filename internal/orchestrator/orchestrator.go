// Package orchestrator runs one prompt against every configured provider
// and assembles the per-provider scorecards.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/visibility-engine/internal/brand"
	"github.com/sells-group/visibility-engine/internal/citation"
	"github.com/sells-group/visibility-engine/internal/model"
	"github.com/sells-group/visibility-engine/internal/provider"
)

// defaultMaxConcurrency bounds the provider fan-out per prompt test.
const defaultMaxConcurrency = 8

// PromptInvoker is the provider-call surface the orchestrator needs.
// *provider.Client satisfies it; tests supply stubs.
type PromptInvoker interface {
	Invoke(ctx context.Context, providerID, promptText string) (*provider.InvokeResult, error)
}

// ScorecardWriter persists completed and failed scorecards. Optional.
type ScorecardWriter interface {
	SaveScorecards(ctx context.Context, cards []model.ProviderScorecard) error
}

// Orchestrator fans a prompt out to providers and analyzes each response.
type Orchestrator struct {
	invoker        PromptInvoker
	matcher        *brand.Matcher
	writer         ScorecardWriter
	maxConcurrency int
	now            func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithScorecardWriter enables persistence of produced scorecards.
func WithScorecardWriter(w ScorecardWriter) Option {
	return func(o *Orchestrator) { o.writer = w }
}

// WithMaxConcurrency bounds concurrent provider calls per prompt.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithNow sets a fixed clock for testing.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator. A nil matcher gets the default config.
func New(invoker PromptInvoker, matcher *brand.Matcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		invoker:        invoker,
		matcher:        matcher,
		maxConcurrency: defaultMaxConcurrency,
		now:            time.Now,
	}
	if o.matcher == nil {
		o.matcher = brand.NewMatcher(brand.DefaultConfig())
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TestPrompt runs the prompt against every provider concurrently. One
// provider's failure never cancels the others; a provider whose retries are
// exhausted is recorded as a failed scorecard rather than omitted, so
// downstream aggregation can distinguish "never tested" from "tested but
// failed". The returned slice always has one scorecard per provider, in
// the input order.
func (o *Orchestrator) TestPrompt(ctx context.Context, prompt model.Prompt, providerIDs []string, brandCtx model.BrandContext) ([]model.ProviderScorecard, error) {
	cards := make([]model.ProviderScorecard, len(providerIDs))

	g := new(errgroup.Group)
	g.SetLimit(o.maxConcurrency)

	for i, pid := range providerIDs {
		g.Go(func() error {
			cards[i] = o.testProvider(ctx, prompt, pid, brandCtx)
			return nil
		})
	}
	_ = g.Wait()

	completed := 0
	for _, c := range cards {
		if c.Completed() {
			completed++
		}
	}
	zap.L().Info("prompt test complete",
		zap.String("prompt_id", prompt.ID),
		zap.Int("providers", len(providerIDs)),
		zap.Int("completed", completed),
	)

	if o.writer != nil {
		if err := o.writer.SaveScorecards(ctx, cards); err != nil {
			return cards, eris.Wrap(err, "orchestrator: save scorecards")
		}
	}

	return cards, nil
}

// testProvider produces exactly one scorecard for one provider.
func (o *Orchestrator) testProvider(ctx context.Context, prompt model.Prompt, providerID string, brandCtx model.BrandContext) model.ProviderScorecard {
	card := model.ProviderScorecard{
		ID:         uuid.New().String(),
		PromptID:   prompt.ID,
		TopicID:    prompt.TopicID,
		PersonaID:  prompt.PersonaID,
		ProviderID: providerID,
		CreatedAt:  o.now().UTC(),
	}

	res, err := o.invoker.Invoke(ctx, providerID, prompt.Text)
	if err != nil {
		card.Status = model.ScorecardStatusFailed
		card.FailureReason = failureReason(err)
		card.FailureDetail = err.Error()
		return card
	}

	card.Status = model.ScorecardStatusCompleted
	card.ResponseText = res.Text
	card.WordCount = brand.WordCount(res.Text)
	card.LatencyMS = res.Latency.Milliseconds()
	card.TokensUsed = res.TokensUsed
	card.Citations, card.Brands = o.analyze(res, brandCtx)
	return card
}

// analyze runs citation extraction and the brand matcher for every tracked
// brand over one completed response.
func (o *Orchestrator) analyze(res *provider.InvokeResult, brandCtx model.BrandContext) ([]model.Citation, []model.BrandMetric) {
	citations := citation.Extract(res.RawCitations, res.Text)
	competitorDomains := brandCtx.CompetitorDomains()

	// Classify each citation once, against the subject's domain and the
	// competitor set.
	for i := range citations {
		citations[i].Class = brand.ClassifyCitation(citations[i].URL, brandCtx.Subject.Domain, competitorDomains)
	}

	sentences := brand.SplitSentences(res.Text)
	tracked := brandCtx.Tracked()
	metrics := make([]model.BrandMetric, 0, len(tracked))

	for _, b := range tracked {
		m := o.matcher.Match(res.Text, b.Name, b.Domain)

		metric := model.BrandMetric{
			BrandName:     b.Name,
			Mentioned:     m.Mentioned,
			MentionCount:  m.MentionCount,
			FirstPosition: m.FirstPosition,
			DepthWords:    m.DepthWords,
			IsOwner:       b.Name == brandCtx.Subject.Name && b.Domain == brandCtx.Subject.Domain,
			Confidence:    m.Confidence,
			Sentiment:     model.SentimentNeutral,
			Citations:     attributeCitations(citations, b),
		}
		if m.Mentioned && m.FirstPosition != nil {
			metric.Sentiment = o.matcher.Sentiment(sentences, *m.FirstPosition)
		}
		metrics = append(metrics, metric)
	}

	return citations, metrics
}

// attributeCitations returns the citations whose host belongs to the given
// brand's domain.
func attributeCitations(citations []model.Citation, b model.Brand) []model.Citation {
	if b.Domain == "" {
		return nil
	}
	var out []model.Citation
	for _, c := range citations {
		if brand.ClassifyCitation(c.URL, b.Domain, nil) == model.CitationOwned {
			cc := c
			out = append(out, cc)
		}
	}
	return out
}

// failureReason recovers the machine-readable reason from a provider error,
// falling back to cancellation/network classes for untyped errors.
func failureReason(err error) model.FailureReason {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	if errors.Is(err, context.Canceled) {
		return model.FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	return model.FailureNetwork
}
