// Package engine wires the four subsystems (overround, regression, Monte
// Carlo podium, online fitter) into the programmatic surface spec §6
// describes: fit_market, a calibrator that produces a FittedModel, and
// FittedModel's price_matrix/derive_multi accessors.
package engine

import (
	"math"

	"github.com/google/uuid"

	"github.com/sawpanic/racepricer/internal/config"
	"github.com/sawpanic/racepricer/internal/fitter"
	"github.com/sawpanic/racepricer/internal/matrix"
	"github.com/sawpanic/racepricer/internal/metrics"
	"github.com/sawpanic/racepricer/internal/overround"
	"github.com/sawpanic/racepricer/internal/perr"
	"github.com/sawpanic/racepricer/internal/podium"
	"github.com/sawpanic/racepricer/internal/probability"
	"github.com/sawpanic/racepricer/internal/regression"
)

// FitMarket removes margin from prices under method and verifies the
// recovered overround is within tolerance of expectedOverround (spec §6
// programmatic surface: "fit_market(method, prices, expected_overround) →
// Market"). opts is optional (e.g. overround.WithMetrics) and forwarded
// verbatim to overround.Fit.
func FitMarket(method overround.Method, prices []float64, expectedOverround, tolerance float64, opts ...overround.Option) (overround.Market, error) {
	market, err := overround.Fit(method, prices, opts...)
	if err != nil {
		return overround.Market{}, err
	}
	if math.Abs(market.Overround.Value-expectedOverround) > tolerance {
		return overround.Market{}, perr.New(perr.InvalidMarket,
			"fitted overround %v does not match expected %v within %v", market.Overround.Value, expectedOverround, tolerance)
	}
	return market, nil
}

// ExtrapolateOverrounds re-exports overround.ExtrapolateOverrounds at the
// engine surface named by spec §6.
func ExtrapolateOverrounds(wp overround.WinPlace, n int) ([]float64, error) {
	return overround.ExtrapolateOverrounds(wp, n)
}

// WinPlaceMarkets bundles the two published markets a calibration starts
// from, already margin-fitted by FitMarket/overround.Fit.
type WinPlaceMarkets struct {
	Win          overround.Market
	Place        overround.Market
	PlacesPaying int // X ∈ {2,3}
}

// Calibrator owns the long-lived, reusable pieces of a pricing pipeline: the
// regression formulas that seed W rows 2..N, the fit tuning knobs, the
// podium engine (whose pooled buffers persist and grow across calibrations),
// and an optional metrics registry.
type Calibrator struct {
	Coefficients []regression.Coefficients // indexed by row-2 (Coefficients[0] seeds row index 1, i.e. Top-2)
	FitOptions   config.FitOptions
	Engine       *podium.Engine
	Registry     *metrics.Registry
}

// NewCalibrator constructs a Calibrator against a fresh, seeded podium
// engine (spec §6: "calibrator(coefficients, fit_options).fit(...)"). The
// engine reports its skipped-trial warnings through the Calibrator's own
// Registry (see internal/podium's Engine.SetRegistry).
func NewCalibrator(coefficients []regression.Coefficients, opts config.FitOptions, seed uint64) *Calibrator {
	eng := podium.NewEngine(seed)
	reg := metrics.NewRegistry()
	eng.SetRegistry(reg)
	return &Calibrator{
		Coefficients: coefficients,
		FitOptions:   opts,
		Engine:       eng,
		Registry:     reg,
	}
}

// FitMarket is the Calibrator-bound counterpart of the package-level
// FitMarket: it fits method/prices against expectedOverround using this
// Calibrator's own Registry, so Power/OddsRatio optimiser reversals during
// the Win/Place margin fit land on the same Registry as the online fit that
// follows (spec SPEC_FULL §2/§3: the OptimiserReversals CounterVec).
func (c *Calibrator) FitMarket(method overround.Method, prices []float64, expectedOverround, tolerance float64) (overround.Market, error) {
	return FitMarket(method, prices, expectedOverround, tolerance, overround.WithMetrics(c.Registry, "overround"))
}

// Fit runs the full control flow of spec §2: seed W rows 2..N from the
// regression primer, then hand off to the online fitter until the Top-X
// column matches the observed Place probabilities (or ConvergenceExceeded).
// n is the simulated podium depth (number of rows of W / price matrix).
func (c *Calibrator) Fit(wp WinPlaceMarkets, n int) (*FittedModel, error) {
	pWin := wp.Win.Probabilities
	pPlace := wp.Place.Probabilities
	m := len(pWin)
	if len(pPlace) != m {
		return nil, perr.New(perr.InvalidMarket, "win field size %d != place field size %d", m, len(pPlace))
	}
	// overround.Fit normalises the Place market to sum 1, but row X-1 of the
	// price matrix sums to X (X runners finish in the top X of every trial).
	// Rescale so the fitter compares like with like.
	if placeSum := probability.Sum(pPlace); placeSum > 0 {
		scaled := make([]float64, m)
		for j, p := range pPlace {
			scaled[j] = p * float64(wp.PlacesPaying) / placeSum
		}
		pPlace = scaled
	}
	if n < wp.PlacesPaying {
		n = wp.PlacesPaying
	}
	if len(c.Coefficients) < n-1 {
		return nil, perr.New(perr.InsufficientInformation,
			"calibrator has %d regression formulas, need %d to seed rows 1..%d", len(c.Coefficients), n-1, n-1)
	}

	active := probability.Active(pWin)
	w := matrix.New(n, m)
	w.CopyRowFrom(0, pWin)

	baseInputs := regression.Inputs{"active_count": float64(len(active))}
	features := make([]regression.Inputs, m)
	for j := range features {
		features[j] = regression.Inputs{}
	}
	for row := 1; row < n; row++ {
		seeded, err := regression.SeedRow(c.Coefficients[row-1], pWin, features, baseInputs)
		if err != nil {
			return nil, err
		}
		w.CopyRowFrom(row, seeded)
		w.NormalizeRow(row)
	}

	fitOpts := fitter.Options{
		MaxIterations:    c.FitOptions.MaxIterations,
		TargetMSRE:       c.FitOptions.TargetMSRE,
		OpenLoopExponent: c.FitOptions.OpenLoopExponent,
		MonteCarloTrials: c.FitOptions.MonteCarloTrials,
	}
	res, fitErr := fitter.Fit(c.Engine, w, pWin, pPlace, wp.PlacesPaying, fitOpts, c.Registry)
	model := &FittedModel{
		RequestID:   uuid.New().String(),
		W:           res.W,
		priceMatrix: res.PriceMatrix,
		engine:      c.Engine,
		trials:      c.FitOptions.MonteCarloTrials,
		MSRE:        res.MSRE,
		Converged:   res.Converged,
	}
	return model, fitErr
}
