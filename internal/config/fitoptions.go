// Package config holds the tunable knobs for a pricing request: the online
// fitter's convergence criteria and the Monte Carlo trial count. These are
// plain structs loadable from YAML (gopkg.in/yaml.v3), following
// internal/config/guards.go's GuardsConfig/LoadGuardsConfig pattern in the
// teacher repo — useful for batch/offline tuning even though a single
// pricing request never touches the filesystem itself.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FitOptions bounds the online weight fitter and the Monte Carlo engine it
// drives (spec §4.5, §6).
type FitOptions struct {
	MaxIterations     int     `yaml:"max_iterations"`
	TargetMSRE        float64 `yaml:"target_msre"`
	OpenLoopExponent  float64 `yaml:"open_loop_exponent"` // t ∈ [0,1]
	MonteCarloTrials  int     `yaml:"monte_carlo_trials"`
	OverroundTolerance float64 `yaml:"overround_tolerance"`
}

// DefaultFitOptions matches spec §6's default tolerances.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MaxIterations:      25,
		TargetMSRE:         1e-6,
		OpenLoopExponent:   0.5,
		MonteCarloTrials:   100000,
		OverroundTolerance: 1e-6,
	}
}

// FastFitOptions matches spec §6's "fast preset" (target MSRE 1e-3).
func FastFitOptions() FitOptions {
	o := DefaultFitOptions()
	o.TargetMSRE = 1e-3
	o.MonteCarloTrials = 20000
	return o
}

// LoadFitOptions reads a YAML FitOptions document from path.
func LoadFitOptions(path string) (FitOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FitOptions{}, fmt.Errorf("read fit options: %w", err)
	}
	opts := DefaultFitOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return FitOptions{}, fmt.Errorf("parse fit options YAML: %w", err)
	}
	return opts, nil
}
