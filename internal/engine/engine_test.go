package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/racepricer/internal/config"
	"github.com/sawpanic/racepricer/internal/matrix"
	"github.com/sawpanic/racepricer/internal/multi"
	"github.com/sawpanic/racepricer/internal/overround"
	"github.com/sawpanic/racepricer/internal/perr"
	"github.com/sawpanic/racepricer/internal/podium"
	"github.com/sawpanic/racepricer/internal/regression"
)

// identityFormula seeds a row as a verbatim copy of the Win weight, giving a
// calibrator whose pre-fit W starts at the identity model.
func identityFormula() regression.Coefficients {
	return regression.Coefficients{
		Terms:       []regression.Term{regression.Variable("win_weight")},
		Coefficient: []float64{1.0},
	}
}

func TestCalibratorFitPinsWinRowAndProducesRequestID(t *testing.T) {
	win, err := overround.Fit(overround.Multiplicative, []float64{1.818181818, 3.030303030, 4.545454545})
	require.NoError(t, err)
	place, err := overround.Fit(overround.Multiplicative, []float64{1.2, 1.5, 2.0})
	require.NoError(t, err)

	cal := NewCalibrator([]regression.Coefficients{identityFormula()}, config.FastFitOptions(), 7)
	model, err := cal.Fit(WinPlaceMarkets{Win: win, Place: place, PlacesPaying: 2}, 2)
	require.NoError(t, err)
	require.NotEmpty(t, model.RequestID)

	for j, p := range win.Probabilities {
		assert.InDelta(t, p, model.W.At(0, j), 1e-9, "row 0 must stay pinned to the Win probabilities")
	}
	assert.Equal(t, 2, model.PriceMatrix().Rows)
}

// TestIdentityModelMatchesMarginalWinProbabilities (spec §8 S3): when every
// row of W equals the Win row, the MC engine's Top-1 row must reproduce it,
// and its Top-2 row should sit above each runner's Top-1 probability.
func TestIdentityModelMatchesMarginalWinProbabilities(t *testing.T) {
	pWin := []float64{0.2, 0.2, 0.2, 0.2, 0.2}
	w := matrix.New(3, len(pWin))
	for i := 0; i < 3; i++ {
		w.CopyRowFrom(i, append([]float64(nil), pWin...))
	}
	eng := podium.NewEngine(123)
	priceMatrix, err := eng.Simulate(w, 1000000)
	require.NoError(t, err)

	for j, p := range pWin {
		assert.InDelta(t, p, priceMatrix.At(0, j), 0.003)
		assert.InDelta(t, 0.4, priceMatrix.At(1, j), 0.003)
	}
}

// TestBiasedRow2ShiftsTowardLongshots (spec §8 S4): presetting row 2 away
// from the identity model should push the Top-2 probability of the
// shortest-priced runner down and the longest-priced runner up, relative to
// what the identity model alone would produce.
func TestBiasedRow2ShiftsTowardLongshots(t *testing.T) {
	pWin := []float64{0.05, 0.10, 0.25, 0.10, 0.35, 0.15}
	biasedRow2 := []float64{0.09, 0.13, 0.22, 0.13, 0.28, 0.15}

	identity := matrix.New(2, len(pWin))
	identity.CopyRowFrom(0, pWin)
	identity.CopyRowFrom(1, pWin)

	biased := matrix.New(2, len(pWin))
	biased.CopyRowFrom(0, pWin)
	biased.CopyRowFrom(1, biasedRow2)

	identityEng := podium.NewEngine(55)
	biasedEng := podium.NewEngine(55)

	identityMatrix, err := identityEng.Simulate(identity, 500000)
	require.NoError(t, err)
	biasedMatrix, err := biasedEng.Simulate(biased, 500000)
	require.NoError(t, err)

	longshot := 0 // pWin[0] = 0.05, the longest-priced (favourite has highest prob; longshot = lowest prob)
	favourite := 4 // pWin[4] = 0.35, the favourite

	assert.Greater(t, biasedMatrix.At(1, longshot), identityMatrix.At(1, longshot)-0.01,
		"biased row 2 gives the longshot relatively more Top-2 weight than identity")
	assert.Less(t, biasedMatrix.At(1, favourite), identityMatrix.At(1, favourite)+0.01,
		"biased row 2 gives the favourite relatively less Top-2 weight than identity")
}

// TestMultiPricingOnScratchedField (spec §8 S5): a three-leg multi over the
// S2 scratched-field inputs must price to a finite probability below every
// marginal, and a price above every marginal.
func TestMultiPricingOnScratchedField(t *testing.T) {
	prices := []float64{1.65, 7.0, 15.0, 9.5, math.Inf(1), 9.0, 7.0, 11.0, 151.0}
	market, err := overround.Fit(overround.Multiplicative, prices)
	require.NoError(t, err)

	n := 3
	w := matrix.New(n, len(prices))
	for i := 0; i < n; i++ {
		w.CopyRowFrom(i, append([]float64(nil), market.Probabilities...))
	}
	eng := podium.NewEngine(321)

	selections := []multi.Selection{
		{Runner: 5, RankBound: 1}, // "runner 6" top-1 (1-based spec numbering)
		{Runner: 6, RankBound: 2}, // "runner 7" top-2
		{Runner: 7, RankBound: 3}, // "runner 8" top-3
	}
	res, err := multi.Derive(eng, w, selections, 400000)
	require.NoError(t, err)

	minMarginal := market.Probabilities[5]
	for _, s := range selections {
		if market.Probabilities[s.Runner] < minMarginal {
			minMarginal = market.Probabilities[s.Runner]
		}
	}
	maxPrice := 1.0 / minMarginal

	assert.Greater(t, res.Probability, 0.0)
	assert.Less(t, res.Probability, minMarginal)
	assert.Greater(t, res.Price, maxPrice)
}

func TestCalibratorConvergenceExceededReturnsBestEffort(t *testing.T) {
	win, err := overround.Fit(overround.Multiplicative, []float64{2.0, 3.0, 6.0})
	require.NoError(t, err)
	place, err := overround.Fit(overround.Multiplicative, []float64{1.3, 1.6, 2.5})
	require.NoError(t, err)

	cal := NewCalibrator([]regression.Coefficients{identityFormula()}, config.FitOptions{
		MaxIterations: 1, TargetMSRE: 1e-12, OpenLoopExponent: 0.5, MonteCarloTrials: 30000,
	}, 9)
	model, err := cal.Fit(WinPlaceMarkets{Win: win, Place: place, PlacesPaying: 2}, 2)
	require.Error(t, err)
	assert.True(t, perr.Is(err, perr.ConvergenceExceeded))
	assert.False(t, model.Converged)
}
