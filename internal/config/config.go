package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/visibility-engine/internal/aggregate"
	"github.com/sells-group/visibility-engine/internal/brand"
	"github.com/sells-group/visibility-engine/internal/provider"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI      OpenAIConfig      `yaml:"openai" mapstructure:"openai"`
	Perplexity  PerplexityConfig  `yaml:"perplexity" mapstructure:"perplexity"`
	Brand       BrandConfig       `yaml:"brand" mapstructure:"brand"`
	Test        TestConfig        `yaml:"test" mapstructure:"test"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig     `yaml:"circuit" mapstructure:"circuit"`
	Aggregation AggregationConfig `yaml:"aggregation" mapstructure:"aggregation"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string  `yaml:"key" mapstructure:"key"`
	Model string  `yaml:"model" mapstructure:"model"`
	RPS   float64 `yaml:"rps" mapstructure:"rps"`
}

// OpenAIConfig holds settings for an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Model   string  `yaml:"model" mapstructure:"model"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Model   string  `yaml:"model" mapstructure:"model"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// BrandConfig tunes the brand matcher.
type BrandConfig struct {
	FuzzyThreshold        float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	MinFuzzyLength        int     `yaml:"min_fuzzy_length" mapstructure:"min_fuzzy_length"`
	MinPartialTokenLength int     `yaml:"min_partial_token_length" mapstructure:"min_partial_token_length"`
}

// TestConfig configures prompt test execution.
type TestConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	TimeoutSecs    int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RetryConfig configures provider retry behavior.
type RetryConfig struct {
	MaxAttempts        int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffSecs float64 `yaml:"initial_backoff_secs" mapstructure:"initial_backoff_secs"`
	MaxBackoffSecs     float64 `yaml:"max_backoff_secs" mapstructure:"max_backoff_secs"`
}

// CircuitConfig configures the per-provider circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// AggregationConfig tunes metric aggregation.
type AggregationConfig struct {
	DecayRate           float64 `yaml:"decay_rate" mapstructure:"decay_rate"`
	PriorWeight         float64 `yaml:"prior_weight" mapstructure:"prior_weight"`
	NeutralPrior        float64 `yaml:"neutral_prior" mapstructure:"neutral_prior"`
	MinSampleVisibility int     `yaml:"min_sample_visibility" mapstructure:"min_sample_visibility"`
	MinSampleCitation   int     `yaml:"min_sample_citation" mapstructure:"min_sample_citation"`
}

// ServerConfig configures the metrics API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VISIBILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.rps", 2)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.rps", 2)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.rps", 1)
	v.SetDefault("brand.fuzzy_threshold", 0.82)
	v.SetDefault("brand.min_fuzzy_length", 5)
	v.SetDefault("brand.min_partial_token_length", 4)
	v.SetDefault("test.max_concurrency", 8)
	v.SetDefault("test.timeout_secs", 60)
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.initial_backoff_secs", 2)
	v.SetDefault("retry.max_backoff_secs", 30)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("aggregation.decay_rate", 0.3)
	v.SetDefault("aggregation.prior_weight", 4)
	v.SetDefault("aggregation.neutral_prior", 0.5)
	v.SetDefault("aggregation.min_sample_visibility", 20)
	v.SetDefault("aggregation.min_sample_citation", 10)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Providers assembles the provider client configs for every provider that
// has an API key. Order is stable: anthropic, openai, perplexity.
func (c *Config) Providers() []provider.Config {
	var out []provider.Config
	if c.Anthropic.Key != "" {
		out = append(out, provider.Config{
			ID:     "anthropic",
			Kind:   provider.KindAnthropic,
			Model:  c.Anthropic.Model,
			APIKey: c.Anthropic.Key,
			RPS:    c.Anthropic.RPS,
		})
	}
	if c.OpenAI.Key != "" {
		out = append(out, provider.Config{
			ID:      "openai",
			Kind:    provider.KindOpenAI,
			Model:   c.OpenAI.Model,
			APIKey:  c.OpenAI.Key,
			BaseURL: c.OpenAI.BaseURL,
			RPS:     c.OpenAI.RPS,
		})
	}
	if c.Perplexity.Key != "" {
		out = append(out, provider.Config{
			ID:      "perplexity",
			Kind:    provider.KindSearchLLM,
			Model:   c.Perplexity.Model,
			APIKey:  c.Perplexity.Key,
			BaseURL: c.Perplexity.BaseURL,
			RPS:     c.Perplexity.RPS,
		})
	}
	return out
}

// BrandMatcherConfig maps the loaded settings onto the matcher defaults.
func (c *Config) BrandMatcherConfig() brand.Config {
	bc := brand.DefaultConfig()
	if c.Brand.FuzzyThreshold > 0 {
		bc.FuzzyThreshold = c.Brand.FuzzyThreshold
	}
	if c.Brand.MinFuzzyLength > 0 {
		bc.MinFuzzyLength = c.Brand.MinFuzzyLength
	}
	if c.Brand.MinPartialTokenLength > 0 {
		bc.MinPartialTokenLength = c.Brand.MinPartialTokenLength
	}
	return bc
}

// AggregateConfig maps the loaded settings onto the aggregator defaults.
func (c *Config) AggregateConfig() aggregate.Config {
	return aggregate.Config{
		DecayRate:           c.Aggregation.DecayRate,
		PriorWeight:         c.Aggregation.PriorWeight,
		NeutralPrior:        c.Aggregation.NeutralPrior,
		MinSampleVisibility: c.Aggregation.MinSampleVisibility,
		MinSampleCitation:   c.Aggregation.MinSampleCitation,
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
