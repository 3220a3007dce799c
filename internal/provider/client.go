package provider

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/visibility-engine/internal/model"
	"github.com/sells-group/visibility-engine/internal/resilience"
	"github.com/sells-group/visibility-engine/pkg/anthropic"
	"github.com/sells-group/visibility-engine/pkg/openaicompat"
)

// Client fans individual prompt invocations out to configured providers,
// applying per-provider rate limiting, a per-call timeout, the shared retry
// budget and a circuit breaker. All state is per-provider plumbing; the call
// itself has no side effects beyond the network request and logging.
type Client struct {
	invokers map[string]Invoker
	limiters map[string]*rate.Limiter
	breakers *resilience.ProviderBreakers
	retry    resilience.RetryConfig
	timeout  time.Duration
}

// Options tunes the resilient client. Zero values fall back to the provider
// contract defaults.
type Options struct {
	// Timeout bounds each individual attempt. Exceeding it is a retryable
	// failure, subject to the same retry budget. Default: 60s.
	Timeout time.Duration

	// Retry overrides the retry configuration.
	Retry resilience.RetryConfig

	// Circuit overrides the circuit breaker configuration.
	Circuit resilience.CircuitBreakerConfig
}

// NewClient builds invokers for every configured provider.
func NewClient(cfgs []Config, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if opts.Circuit.FailureThreshold == 0 {
		opts.Circuit = resilience.DefaultCircuitBreakerConfig()
	}

	c := &Client{
		invokers: make(map[string]Invoker, len(cfgs)),
		limiters: make(map[string]*rate.Limiter, len(cfgs)),
		breakers: resilience.NewProviderBreakers(opts.Circuit),
		retry:    opts.Retry,
		timeout:  opts.Timeout,
	}

	for _, cfg := range cfgs {
		inv, err := buildInvoker(cfg)
		if err != nil {
			return nil, err
		}
		c.invokers[cfg.ID] = inv
		if cfg.RPS > 0 {
			c.limiters[cfg.ID] = rate.NewLimiter(rate.Limit(cfg.RPS), max(int(cfg.RPS), 1))
		}
	}

	return c, nil
}

// Register adds or replaces an invoker directly. Used by tests and by
// callers that construct invokers themselves.
func (c *Client) Register(providerID string, inv Invoker) {
	c.invokers[providerID] = inv
}

// Providers returns the configured provider IDs in stable order.
func (c *Client) Providers() []string {
	ids := make([]string, 0, len(c.invokers))
	for id := range c.invokers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BreakerStates exposes circuit state per provider for observability.
func (c *Client) BreakerStates() map[string]resilience.CircuitState {
	return c.breakers.States()
}

// Invoke runs one prompt against one provider under the full resilience
// stack. On success it returns the normalized result; after the retry
// budget is exhausted (or a fatal error) it returns a typed *Error naming
// the provider and the last underlying cause.
func (c *Client) Invoke(ctx context.Context, providerID, promptText string) (*InvokeResult, error) {
	inv, ok := c.invokers[providerID]
	if !ok {
		return nil, &Error{
			ProviderID: providerID,
			Reason:     model.FailureInvalidRequest,
			Err:        eris.Errorf("unknown provider %q", providerID),
		}
	}

	breaker := c.breakers.Get(providerID)

	retryCfg := c.retry
	retryCfg.ShouldRetry = func(err error) bool {
		var pe *Error
		return errors.As(err, &pe) && pe.Retryable()
	}
	retryCfg.OnRetry = resilience.RetryLogger(providerID, "invoke")

	result, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*InvokeResult, error) {
		if err := c.wait(ctx, providerID); err != nil {
			return nil, wrapError(providerID, err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		res, err := resilience.ExecuteVal(attemptCtx, breaker, func(ctx context.Context) (*InvokeResult, error) {
			res, err := inv.Invoke(ctx, promptText)
			if err != nil {
				return nil, err
			}
			if err := validateBody(providerID, res.Text); err != nil {
				return nil, err
			}
			return res, nil
		})
		if err != nil {
			return nil, wrapError(providerID, err)
		}
		return res, nil
	})
	if err != nil {
		pe := wrapError(providerID, err)
		zap.L().Warn("provider call failed",
			zap.String("provider", providerID),
			zap.String("reason", string(pe.Reason)),
			zap.Error(pe.Err),
		)
		return nil, pe
	}

	zap.L().Debug("provider call complete",
		zap.String("provider", providerID),
		zap.Duration("latency", result.Latency),
		zap.Int("tokens", result.TokensUsed),
	)
	return result, nil
}

// wait blocks on the provider's rate limiter, if one is configured.
func (c *Client) wait(ctx context.Context, providerID string) error {
	l, ok := c.limiters[providerID]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}

func buildInvoker(cfg Config) (Invoker, error) {
	switch cfg.Kind {
	case KindAnthropic:
		return NewAnthropicInvoker(anthropic.NewClient(cfg.APIKey), cfg.Model), nil
	case KindOpenAI, KindSearchLLM:
		copts := []openaicompat.Option{openaicompat.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			copts = append(copts, openaicompat.WithBaseURL(cfg.BaseURL))
		}
		return NewChatInvoker(openaicompat.NewClient(cfg.APIKey, copts...), cfg.Model), nil
	default:
		return nil, eris.Errorf("provider: unknown kind %q for %q", cfg.Kind, cfg.ID)
	}
}
