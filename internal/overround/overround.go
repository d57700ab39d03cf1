// Package overround converts between published decimal prices and fair
// probabilities under the four margin models in spec §4.1, and extrapolates
// margins across the family of Top-k markets for a race.
package overround

import (
	"math"

	"github.com/sawpanic/racepricer/internal/metrics"
	"github.com/sawpanic/racepricer/internal/perr"
	"github.com/sawpanic/racepricer/internal/probability"
)

// Method is one of the four supported margin models.
type Method string

const (
	Multiplicative Method = "multiplicative"
	Power          Method = "power"
	OddsRatio      Method = "odds_ratio"
	Fractional     Method = "fractional"
)

// Overround is the margin attached to one market: the scalar v and the
// method used to frame/fit it.
type Overround struct {
	Value  float64
	Method Method
}

// Market pairs a fair-probability vector with the overround that reproduces
// the originally observed prices (spec §3 "Market" invariant).
type Market struct {
	Probabilities []float64
	Overround     Overround
}

// FitResidualTolerance is the default tolerance for the descent searches
// used by Power and OddsRatio (spec §6).
const FitResidualTolerance = 1e-6

// searchConfig carries the optional metrics wiring down to the Power and
// OddsRatio methods' internal optimize.Search calls.
type searchConfig struct {
	registry *metrics.Registry
	caller   string
}

// Option configures optional behaviour of Fit/Frame. The zero value (no
// options) preserves every existing call site's behaviour exactly.
type Option func(*searchConfig)

// WithMetrics reports every optimize.Search reversal the Power/OddsRatio
// methods perform to reg, labeled caller (SPEC_FULL §2/§3: the optimiser
// reversal CounterVec). Multiplicative and Fractional never search, so this
// option is a no-op for those methods.
func WithMetrics(reg *metrics.Registry, caller string) Option {
	return func(c *searchConfig) {
		c.registry = reg
		c.caller = caller
	}
}

func buildSearchConfig(opts []Option) searchConfig {
	var cfg searchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// label qualifies cfg.caller with suffix (e.g. "power.frame") for the
// OptimiserReversals CounterVec, so reversals from the four distinct
// Power/OddsRatio search call sites are distinguishable in the metric.
func (c searchConfig) label(suffix string) string {
	if c.caller == "" {
		return suffix
	}
	return c.caller + "." + suffix
}

func validatePrices(prices []float64) error {
	if len(prices) == 0 {
		return perr.New(perr.InsufficientInformation, "empty field")
	}
	for i, p := range prices {
		if probability.Scratched(p) {
			continue
		}
		if math.IsNaN(p) || math.IsInf(p, -1) || p < 1.0 {
			return perr.New(perr.InvalidMarket, "price at index %d is non-finite or < 1.0: %v", i, p)
		}
	}
	return nil
}

// Fit removes margin from observed prices, producing a fair probability
// vector and the overround that was present. opts is optional (e.g.
// WithMetrics); omit it and every call site's behaviour is unchanged.
func Fit(method Method, prices []float64, opts ...Option) (Market, error) {
	if err := validatePrices(prices); err != nil {
		return Market{}, err
	}
	cfg := buildSearchConfig(opts)
	switch method {
	case Multiplicative:
		return fitMultiplicative(prices)
	case Power:
		return fitPower(prices, cfg)
	case OddsRatio:
		return fitOddsRatio(prices, cfg)
	case Fractional:
		return fitFractional(prices)
	default:
		return Market{}, perr.New(perr.InvalidMarket, "unknown overround method %q", method)
	}
}

// Frame applies margin v to a fair probability vector, producing decimal
// prices. Scratched positions (probability 0) remain +Inf. opts is optional
// (e.g. WithMetrics); omit it and every call site's behaviour is unchanged.
func Frame(method Method, p []float64, v float64, opts ...Option) ([]float64, error) {
	if v < 1.0 {
		return nil, perr.New(perr.OverroundUnsatisfiable, "requested overround %v < 1.0", v)
	}
	if len(p) == 0 {
		return nil, perr.New(perr.InsufficientInformation, "empty field")
	}
	cfg := buildSearchConfig(opts)
	switch method {
	case Multiplicative:
		return frameMultiplicative(p, v)
	case Power:
		return framePower(p, v, cfg)
	case OddsRatio:
		return frameOddsRatio(p, v, cfg)
	case Fractional:
		return frameFractional(p, v)
	default:
		return nil, perr.New(perr.InvalidMarket, "unknown overround method %q", method)
	}
}

func activeCount(p []float64) int {
	n := 0
	for _, v := range p {
		if v > 0 {
			n++
		}
	}
	return n
}
