// Package optimize implements the univariate residual-descent search that
// underlies overround fitting (solving for k in the Power method and d in
// the OddsRatio method). The online weight fitter does not use it:
// internal/fitter applies a direct multiplicative update to W on each
// iteration instead of a 1-D search.
package optimize

import (
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/racepricer/internal/metrics"
)

// Residual evaluates the (non-negative) residual at x. Lower is better;
// Search stops as soon as it reaches TargetResidual.
type Residual func(x float64) float64

// Bounds caps the search effort and defines convergence. Registry and
// Caller are optional: when Registry is non-nil, every direction reversal
// increments Registry.OptimiserReversals labeled by Caller (spec SPEC_FULL
// §2: "a CounterVec of optimiser reversal counts keyed by caller").
type Bounds struct {
	MaxSteps       int
	MaxReversals   int
	TargetResidual float64
	Registry       *metrics.Registry
	Caller         string
}

// DefaultBounds is a general-purpose search budget with the 1e-6 residual
// tolerance. The overround methods do not call it; they pass their own
// Bounds (200 steps, 60 reversals, FitResidualTolerance).
func DefaultBounds() Bounds {
	return Bounds{MaxSteps: 200, MaxReversals: 50, TargetResidual: 1e-6}
}

// Result is the outcome of a Search: the best x found, its residual, and
// whether the search reached TargetResidual before exhausting its budget.
type Result struct {
	X         float64
	Residual  float64
	Converged bool
	Steps     int
	Reversals int
}

// Search performs the step-halving, direction-reversing univariate descent
// described by spec §4.2:
//
//	x ← x0; step ← step0; dir ← dir0; r_prev ← r(x)
//	loop:
//	  x' ← x + dir·step; r' ← r(x')
//	  if r' <= target: return x'
//	  if r' < r_prev: accept x', keep direction and step
//	  else: reverse direction, halve step, count a reversal
//
// A tie (r' == r_prev) counts as non-improving and triggers a reversal, per
// spec. Search returns the best point it ever accepted, not the last point
// it probed — so a final non-improving probe never overwrites X.
//
// Given identical inputs and an identical Residual function, Search is
// bit-exact reproducible: it performs no randomised or time-dependent
// operations.
func Search(x0, step0 float64, dir int, r Residual, b Bounds) Result {
	if dir == 0 {
		dir = 1
	}
	x := x0
	step := step0
	rPrev := r(x)
	reversals := 0
	steps := 0

	for {
		steps++
		if steps > b.MaxSteps {
			return Result{X: x, Residual: rPrev, Converged: false, Steps: steps - 1, Reversals: reversals}
		}

		xNext := x + float64(dir)*step
		rNext := r(xNext)

		if rNext <= b.TargetResidual {
			return Result{X: xNext, Residual: rNext, Converged: true, Steps: steps, Reversals: reversals}
		}

		if rNext < rPrev {
			x = xNext
			rPrev = rNext
			continue
		}

		reversals++
		if b.Registry != nil {
			caller := b.Caller
			if caller == "" {
				caller = "unknown"
			}
			b.Registry.OptimiserReversals.WithLabelValues(caller).Inc()
		}
		if reversals > b.MaxReversals {
			log.Warn().
				Int("steps", steps).
				Int("reversals", reversals).
				Float64("residual", rPrev).
				Msg("univariate descent exhausted reversal budget")
			return Result{X: x, Residual: rPrev, Converged: false, Steps: steps, Reversals: reversals}
		}
		dir = -dir
		step /= 2
	}
}
