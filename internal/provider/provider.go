// Package provider issues single LLM calls with timeout, retry, backoff and
// failure classification. It is a pure request/response boundary: aside from
// logging, nothing outlives the call.
package provider

import (
	"context"
	"time"
)

// systemInstruction is the fixed system turn sent with every prompt. It is
// identical across providers so responses are comparable: the only
// per-provider variation is model selection.
const systemInstruction = "Answer the question directly and concretely. " +
	"Cite the sources you relied on as inline markdown links, e.g. [Example](https://example.com/page). " +
	"Prefer primary sources (vendor documentation, official sites) where possible."

// Sampling parameters are fixed for reproducibility across runs.
const (
	defaultTemperature = 0.4
	defaultMaxTokens   = 1024
)

// Kind selects the wire protocol for a configured provider.
type Kind string

const (
	KindAnthropic Kind = "anthropic"
	KindOpenAI    Kind = "openai"     // any OpenAI-compatible endpoint
	KindSearchLLM Kind = "search_llm" // OpenAI-compatible with structured citations (Perplexity et al.)
)

// Config describes one configured provider.
type Config struct {
	ID      string  `yaml:"id" mapstructure:"id"`
	Kind    Kind    `yaml:"kind" mapstructure:"kind"`
	Model   string  `yaml:"model" mapstructure:"model"`
	APIKey  string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// InvokeResult is the normalized outcome of one successful provider call.
type InvokeResult struct {
	Text         string
	RawCitations []string // structured citation URLs, when the provider exposes them
	Latency      time.Duration
	TokensUsed   int
}

// Invoker issues one request to one provider, with no retry logic of its
// own. Implementations normalize HTTP failures to *StatusError.
type Invoker interface {
	Invoke(ctx context.Context, promptText string) (*InvokeResult, error)
}
