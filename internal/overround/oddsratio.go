package overround

import (
	"math"

	"github.com/sawpanic/racepricer/internal/optimize"
	"github.com/sawpanic/racepricer/internal/probability"
)

// oddsRatioPrice computes m_j = ((1/p_j) - 1)/d + 1 for a single runner.
func oddsRatioPrice(pj, d float64) float64 {
	return ((1.0/pj)-1.0)/d + 1.0
}

// oddsRatioProb inverts oddsRatioPrice: given m_j and d, recover p_j.
func oddsRatioProb(mj, d float64) float64 {
	return 1.0 / (1.0 + (mj-1.0)*d)
}

// frame: m_j = ((1/p_j)-1)/d + 1, with d chosen by descent so Σ 1/m_j == v.
func frameOddsRatio(p []float64, v float64, cfg searchConfig) ([]float64, error) {
	residual := func(d float64) float64 {
		if d == 0 {
			return math.Inf(1)
		}
		s := 0.0
		for _, pj := range p {
			if pj <= 0 {
				continue
			}
			m := oddsRatioPrice(pj, d)
			s += 1.0 / m
		}
		return math.Abs(s - v)
	}

	res := optimize.Search(1.0, 0.5, 1, residual, optimize.Bounds{
		MaxSteps: 200, MaxReversals: 60, TargetResidual: FitResidualTolerance,
		Registry: cfg.registry, Caller: cfg.label("oddsratio.frame"),
	})
	d := res.X

	prices := make([]float64, len(p))
	for i, pj := range p {
		if pj <= 0 {
			prices[i] = math.Inf(1)
			continue
		}
		prices[i] = oddsRatioPrice(pj, d)
	}
	probability.CapPrices(prices, probability.CapFloor)
	return prices, nil
}

// fit: inverse search for d given observed m_j, such that the implied
// probabilities p_j = 1/(1+(m_j-1)d) sum to 1 over active runners.
func fitOddsRatio(prices []float64, cfg searchConfig) (Market, error) {
	residual := func(d float64) float64 {
		if d == 0 {
			return math.Inf(1)
		}
		s := 0.0
		for _, m := range prices {
			if probability.Scratched(m) {
				continue
			}
			s += oddsRatioProb(m, d)
		}
		return math.Abs(s - 1.0)
	}

	res := optimize.Search(1.0, 0.5, 1, residual, optimize.Bounds{
		MaxSteps: 200, MaxReversals: 60, TargetResidual: FitResidualTolerance,
		Registry: cfg.registry, Caller: cfg.label("oddsratio.fit"),
	})
	d := res.X

	p := make([]float64, len(prices))
	for i, m := range prices {
		if probability.Scratched(m) {
			p[i] = 0
			continue
		}
		p[i] = oddsRatioProb(m, d)
	}
	v := probability.Overround(prices)
	return Market{Probabilities: p, Overround: Overround{Value: v, Method: OddsRatio}}, nil
}
