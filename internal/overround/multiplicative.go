package overround

import (
	"math"

	"github.com/sawpanic/racepricer/internal/probability"
)

// frameMultiplicative: m_j = 1/(p_j·v), then capped at the configured price
// floor. Capping does not redistribute the removed probability mass to the
// other runners — the documented (if surprising) behaviour is that margin
// on a capped runner is simply reduced, not conserved. See spec §4.1 and the
// "Open question" in §9 for why the cap is applied to the final framed
// price rather than split across the per-rank overround decomposition.
func frameMultiplicative(p []float64, v float64) ([]float64, error) {
	prices := make([]float64, len(p))
	for i, pi := range p {
		if pi <= 0 {
			prices[i] = math.Inf(1)
			continue
		}
		prices[i] = 1.0 / (pi * v)
	}
	probability.CapPrices(prices, probability.CapFloor)
	return prices, nil
}

// fitMultiplicative: v = Σ 1/m_j; p_j = 1/(m_j·v). Closed form both ways.
func fitMultiplicative(prices []float64) (Market, error) {
	v := probability.Overround(prices)
	p := make([]float64, len(prices))
	for i, m := range prices {
		if probability.Scratched(m) {
			p[i] = 0
			continue
		}
		p[i] = 1.0 / (m * v)
	}
	return Market{Probabilities: p, Overround: Overround{Value: v, Method: Multiplicative}}, nil
}
