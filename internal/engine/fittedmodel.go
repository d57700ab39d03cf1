package engine

import (
	"github.com/sawpanic/racepricer/internal/matrix"
	"github.com/sawpanic/racepricer/internal/multi"
	"github.com/sawpanic/racepricer/internal/podium"
)

// FittedModel is the result of a Calibrator.Fit call: the final weight
// matrix, its derived price matrix, and enough state to price further multis
// without re-running the whole fit (spec §3: "A fitted model owns the final
// W and price matrix for the lifetime of the enclosing pricing request.").
type FittedModel struct {
	RequestID string

	W         *matrix.Dense
	MSRE      float64
	Converged bool

	priceMatrix *matrix.Dense
	engine      *podium.Engine
	trials      int
}

// PriceMatrix returns the N×M cumulative Top-i probability matrix (spec §6:
// "FittedModel.price_matrix() → N×M matrix").
func (m *FittedModel) PriceMatrix() *matrix.Dense {
	return m.priceMatrix
}

// DeriveMulti prices a same-race multi against this model's fitted W (spec
// §6: "FittedModel.derive_multi(&selections) → {probability, price}"). It
// always uses the MC-authoritative path, since W here is generally biased
// away from the identity model the Harville shortcut assumes.
func (m *FittedModel) DeriveMulti(selections []multi.Selection) (multi.Result, error) {
	return multi.Derive(m.engine, m.W, selections, m.trials)
}
