package aggregate

// Config holds the aggregation tunables. The decay and smoothing constants
// are empirically tuned; treat the defaults as starting points and override
// them from configuration when calibrating against sample brands.
type Config struct {
	// DecayRate controls how fast a mention's depth contribution falls off
	// with its first-position rank: weight = exp(-DecayRate * (pos-1)).
	DecayRate float64 `mapstructure:"decay_rate" yaml:"decay_rate"`

	// PriorWeight is the pseudo-count of virtual samples the neutral prior
	// contributes during Bayesian smoothing.
	PriorWeight float64 `mapstructure:"prior_weight" yaml:"prior_weight"`

	// NeutralPrior is the proportion (0–1) small samples are blended toward.
	NeutralPrior float64 `mapstructure:"neutral_prior" yaml:"neutral_prior"`

	// MinSampleVisibility is the scope sample size below which visibility
	// and depth of mention are smoothed.
	MinSampleVisibility int `mapstructure:"min_sample_visibility" yaml:"min_sample_visibility"`

	// MinSampleCitation is the scope sample size below which citation share
	// is smoothed.
	MinSampleCitation int `mapstructure:"min_sample_citation" yaml:"min_sample_citation"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DecayRate:           0.3,
		PriorWeight:         4,
		NeutralPrior:        0.5,
		MinSampleVisibility: 20,
		MinSampleCitation:   10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DecayRate <= 0 {
		c.DecayRate = d.DecayRate
	}
	if c.PriorWeight <= 0 {
		c.PriorWeight = d.PriorWeight
	}
	if c.NeutralPrior <= 0 || c.NeutralPrior >= 1 {
		c.NeutralPrior = d.NeutralPrior
	}
	if c.MinSampleVisibility <= 0 {
		c.MinSampleVisibility = d.MinSampleVisibility
	}
	if c.MinSampleCitation <= 0 {
		c.MinSampleCitation = d.MinSampleCitation
	}
	return c
}
