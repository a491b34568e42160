// FILE: config.go
// Package engine – Configuration model and defaults (spec §6).
//
// Mirrors the teacher's config.go shape (a plain struct plus a
// with-defaults loader) but the engine never reads the process
// environment directly — that's cmd/simulator's job (see its config.go).
// Config travels with the state blob so a tick is fully determined by
// (state, metrics, seed) per the determinism contract in spec §5.
package engine

// Config holds every tunable knob from spec §6. All fields are optional
// at the API boundary (see NewConfig) and default per the table there.
type Config struct {
	ConversionRate float64  `json:"conversionRate" yaml:"conversionRate"`
	AvgOrderValue  float64  `json:"avgOrderValue" yaml:"avgOrderValue"`
	RiskMode       RiskMode `json:"riskMode" yaml:"riskMode"`
	SafetyBudget   float64  `json:"safetyBudget" yaml:"safetyBudget"`

	MinSamplesPerArm             int     `json:"minSamplesPerArm" yaml:"minSamplesPerArm"`
	MinLiftPercent               float64 `json:"minLiftPercent" yaml:"minLiftPercent"`
	MinProbabilityMeaningfulLift float64 `json:"minProbabilityMeaningfulLift" yaml:"minProbabilityMeaningfulLift"`
	MaxEOCPer1000Sessions        float64 `json:"maxEocPer1000Sessions" yaml:"maxEocPer1000Sessions"`

	CVaRQuantile       float64 `json:"cvarQuantile" yaml:"cvarQuantile"`
	MCSamples          int     `json:"mcSamples" yaml:"mcSamples"`
	MCSamplesPromotion int     `json:"mcSamplesPromotion" yaml:"mcSamplesPromotion"`

	// ExplorationCap bounds the TTTS challenger share (policy.go, default
	// 0.50); not in the options table but referenced by §4.4.
	ExplorationCap float64 `json:"explorationCap" yaml:"explorationCap"`
}

// DefaultConfig returns the spec §6 defaults.
func DefaultConfig() Config {
	return Config{
		ConversionRate:               0.02,
		AvgOrderValue:                50,
		RiskMode:                     RiskCautious,
		SafetyBudget:                 50,
		MinSamplesPerArm:             2000,
		MinLiftPercent:               5,
		MinProbabilityMeaningfulLift: 0.95,
		MaxEOCPer1000Sessions:        1.00,
		CVaRQuantile:                 0.05,
		MCSamples:                    2048,
		MCSamplesPromotion:           4096,
		ExplorationCap:               0.50,
	}
}

// NewConfig overlays non-zero fields of opts onto DefaultConfig, the way
// the teacher's loadConfigFromEnv applies a default for every missing
// key. RiskMode is validated and falls back to cautious.
func NewConfig(opts Config) Config {
	cfg := DefaultConfig()
	if opts.ConversionRate > 0 {
		cfg.ConversionRate = opts.ConversionRate
	}
	if opts.AvgOrderValue > 0 {
		cfg.AvgOrderValue = opts.AvgOrderValue
	}
	switch opts.RiskMode {
	case RiskCautious, RiskBalanced, RiskAggressive:
		cfg.RiskMode = opts.RiskMode
	}
	if opts.SafetyBudget > 0 {
		cfg.SafetyBudget = opts.SafetyBudget
	}
	if opts.MinSamplesPerArm > 0 {
		cfg.MinSamplesPerArm = opts.MinSamplesPerArm
	}
	if opts.MinLiftPercent > 0 {
		cfg.MinLiftPercent = opts.MinLiftPercent
	}
	if opts.MinProbabilityMeaningfulLift > 0 {
		cfg.MinProbabilityMeaningfulLift = opts.MinProbabilityMeaningfulLift
	}
	if opts.MaxEOCPer1000Sessions > 0 {
		cfg.MaxEOCPer1000Sessions = opts.MaxEOCPer1000Sessions
	}
	if opts.CVaRQuantile > 0 {
		cfg.CVaRQuantile = opts.CVaRQuantile
	}
	if opts.MCSamples > 0 {
		cfg.MCSamples = opts.MCSamples
	}
	if opts.MCSamplesPromotion > 0 {
		cfg.MCSamplesPromotion = opts.MCSamplesPromotion
	}
	if opts.ExplorationCap > 0 {
		cfg.ExplorationCap = opts.ExplorationCap
	}
	return cfg
}

// explorationEpsilon is the TTTS challenger share for a risk mode
// (spec §4.4).
func explorationEpsilon(mode RiskMode) float64 {
	switch mode {
	case RiskBalanced:
		return 0.10
	case RiskAggressive:
		return 0.20
	default:
		return 0.05
	}
}
