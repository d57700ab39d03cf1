// Package fitter implements the online weight-fitting loop (spec §4.5):
// adjusting weight-matrix rows so the Monte Carlo engine's Top-X column
// matches the observed Place market, with a controllable open-loop coupling
// to the other ranks.
package fitter

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/racepricer/internal/matrix"
	"github.com/sawpanic/racepricer/internal/metrics"
	"github.com/sawpanic/racepricer/internal/perr"
	"github.com/sawpanic/racepricer/internal/podium"
	"github.com/sawpanic/racepricer/internal/probability"
)

// Options bounds the fit (spec §4.5, §6).
type Options struct {
	MaxIterations    int
	TargetMSRE       float64
	OpenLoopExponent float64 // t ∈ [0,1]
	MonteCarloTrials int
}

// Result is the outcome of a Fit call: the final weight matrix, the price
// matrix the Monte Carlo engine produced from it, and the residual metric.
// On ConvergenceExceeded this is still populated with the best (lowest-MSRE)
// W the loop ever saw — callers must inspect Result even when err != nil.
type Result struct {
	W           *matrix.Dense
	PriceMatrix *matrix.Dense
	MSRE        float64
	Iterations  int
	Converged   bool
}

// Fit runs the inner loop of spec §4.5 to convergence (or exhaustion).
//
//   - w: initial weight matrix, row 0 = pWin (never mutated in identity,
//     only re-pinned after every iteration), rows 1..N-1 pre-seeded (e.g.
//     by the regression predictor) and normalised.
//   - pWin: the Win probability vector (row 0's permanent contract).
//   - pPlace: the observed Place probability vector on the Top-X scale
//     (active entries summing to X, as row X-1 of the price matrix does);
//     Calibrator.Fit rescales the overround engine's unit-sum Place market
//     to this scale before calling Fit.
//   - placeRank: X, the rank index (1-based: 2 or 3) the Place market pays,
//     i.e. row index X-1 in w.
func Fit(eng *podium.Engine, w *matrix.Dense, pWin, pPlace []float64, placeRank int, opts Options, reg *metrics.Registry) (Result, error) {
	if placeRank != 2 && placeRank != 3 {
		return Result{}, perr.New(perr.InsufficientInformation, "places_paying %d not in {2,3}", placeRank)
	}
	rowX := placeRank - 1

	active := probability.Active(pWin)
	if len(active) == 0 {
		return Result{}, perr.New(perr.InsufficientInformation, "empty field")
	}

	pinRow0(w, pWin)

	var best Result
	best.MSRE = math.Inf(1)

	iterations := 0
	for ; iterations < opts.MaxIterations; iterations++ {
		priceMatrix, msre, adjustments, err := measure(eng, w, active, pPlace, rowX, opts.MonteCarloTrials)
		if err != nil {
			return Result{}, err
		}

		if msre < best.MSRE {
			best = Result{W: w.Clone(), PriceMatrix: priceMatrix, MSRE: msre, Iterations: iterations + 1}
		}

		if msre <= opts.TargetMSRE {
			best.Converged = true
			if reg != nil {
				reg.FitIterations.Observe(float64(iterations + 1))
				reg.FitFinalMSRE.Set(msre)
			}
			return best, nil
		}

		applyAdjustments(w, rowX, adjustments, opts.OpenLoopExponent)
		pinRow0(w, pWin)
	}

	// The loop above always measures W *before* applying that iteration's
	// adjustment, so exhausting max_iterations never simulates the final
	// post-adjustment W on its own. Re-measure it here so a best-effort
	// result reflects the last update actually made, rather than silently
	// returning the unfitted initial W when max_iterations == 1.
	if finalMatrix, finalMSRE, _, err := measure(eng, w, active, pPlace, rowX, opts.MonteCarloTrials); err == nil {
		if finalMSRE < best.MSRE {
			best = Result{W: w.Clone(), PriceMatrix: finalMatrix, MSRE: finalMSRE, Iterations: iterations}
		}
	}

	if reg != nil {
		reg.FitIterations.Observe(float64(iterations))
		reg.FitFinalMSRE.Set(best.MSRE)
		reg.ConvergenceExceeded.Inc()
	}
	log.Warn().
		Int("iterations", iterations).
		Float64("best_msre", best.MSRE).
		Float64("target_msre", opts.TargetMSRE).
		Msg("online weight fitter exhausted max_iterations without reaching target MSRE")

	return best, perr.New(perr.ConvergenceExceeded,
		"online fit did not reach target MSRE %v within %d iterations (best %v)", opts.TargetMSRE, opts.MaxIterations, best.MSRE)
}

// measure runs one Monte Carlo simulation of w and computes the Top-X
// adjustment vector and MSRE against the observed Place probabilities
// (spec §4.5 steps 1-3, 6). It is the single measurement point the fit loop
// uses both mid-loop (pre-adjustment) and after exhausting max_iterations
// (post-adjustment), so "best" can reflect either state.
func measure(eng *podium.Engine, w *matrix.Dense, active []int, pPlace []float64, rowX, trials int) (*matrix.Dense, float64, []float64, error) {
	priceMatrix, err := eng.Simulate(w, trials)
	if err != nil {
		return nil, 0, nil, err
	}

	qRow := priceMatrix.Row(rowX)
	fairPrices := make([]float64, len(qRow))
	for _, j := range active {
		fairPrices[j] = 1.0 / qRow[j]
	}

	msre := 0.0
	adjustments := make([]float64, w.Cols)
	for i := range adjustments {
		adjustments[i] = 1.0
	}
	for _, j := range active {
		sj := 1.0 / pPlace[j]
		fj := fairPrices[j]
		adjustments[j] = sj / fj
		rel := (sj - fj) / sj
		msre += rel * rel
	}
	msre /= float64(len(active))

	return priceMatrix, msre, adjustments, nil
}

// applyAdjustments updates every row: row X gets the full adjustment; every
// other row (including row 0, transiently — pinRow0 restores it afterward)
// gets a^t, the open-loop-coupled adjustment.
func applyAdjustments(w *matrix.Dense, rowX int, a []float64, t float64) {
	for i := 0; i < w.Rows; i++ {
		row := w.Row(i)
		if i == rowX {
			for j := range row {
				row[j] *= a[j]
			}
		} else {
			for j := range row {
				row[j] *= math.Pow(a[j], t)
			}
		}
		w.NormalizeRow(i)
	}
}

// pinRow0 enforces the invariant that the Win row is never actually moved
// by the fit, regardless of what the open-loop adjustment did to it
// transiently (spec §4.5, §9: "Treat pinning of W[1] as normative").
func pinRow0(w *matrix.Dense, pWin []float64) {
	// A plain copy, not copy-then-renormalise: spec invariant 7 requires
	// row 0 to be bit-exact equal to pWin, and pWin is assumed normalised
	// by its producer (the overround engine).
	w.CopyRowFrom(0, pWin)
}
