package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-engine/internal/provider"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.InDelta(t, 2.0, cfg.Retry.InitialBackoffSecs, 0.001)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.InDelta(t, 0.82, cfg.Brand.FuzzyThreshold, 0.001)
	assert.Equal(t, 20, cfg.Aggregation.MinSampleVisibility)
	assert.Equal(t, 10, cfg.Aggregation.MinSampleCitation)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VISIBILITY_STORE_DRIVER", "postgres")
	t.Setenv("VISIBILITY_LOG_LEVEL", "debug")
	t.Setenv("VISIBILITY_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestProviders_OnlyConfiguredKeys(t *testing.T) {
	cfg := &Config{}
	assert.Empty(t, cfg.Providers())

	cfg.Anthropic.Key = "sk-ant"
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	cfg.Perplexity.Key = "pplx"
	cfg.Perplexity.BaseURL = "https://api.perplexity.ai"
	cfg.Perplexity.Model = "sonar-pro"

	providers := cfg.Providers()
	require.Len(t, providers, 2)
	assert.Equal(t, "anthropic", providers[0].ID)
	assert.Equal(t, provider.KindAnthropic, providers[0].Kind)
	assert.Equal(t, "perplexity", providers[1].ID)
	assert.Equal(t, provider.KindSearchLLM, providers[1].Kind)
}

func TestBrandMatcherConfig_FallsBackToDefaults(t *testing.T) {
	cfg := &Config{}
	bc := cfg.BrandMatcherConfig()
	assert.InDelta(t, 0.82, bc.FuzzyThreshold, 0.001)
	assert.NotEmpty(t, bc.PositiveWords)

	cfg.Brand.FuzzyThreshold = 0.9
	assert.InDelta(t, 0.9, cfg.BrandMatcherConfig().FuzzyThreshold, 0.001)
}

func TestInitLogger_RejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_ConsoleFormat(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
