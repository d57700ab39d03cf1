package overround

import (
	"math"

	"github.com/sawpanic/racepricer/internal/optimize"
	"github.com/sawpanic/racepricer/internal/probability"
)

// initialK0 is the closed-form starting point spec §4.1 gives for the Power
// method: k̂0 = 1 + ln(1/v)/ln(M_active). M_active < 2 degenerates the log
// base, so we fall back to k0 = 1 in that (single-runner) case.
func initialK0(v float64, activeCount int) float64 {
	if activeCount < 2 {
		return 1.0
	}
	return 1.0 + math.Log(1.0/v)/math.Log(float64(activeCount))
}

// frame: m_j = p_j^(-k), k chosen so Σ p_j^k == v. The search direction
// starts decreasing — overround is maximal at uniform p, so moving k down
// from the uniform-field estimate approaches the true value from above.
func framePower(p []float64, v float64, cfg searchConfig) ([]float64, error) {
	n := activeCount(p)
	k0 := initialK0(v, n)

	residual := func(k float64) float64 {
		s := 0.0
		for _, pj := range p {
			if pj <= 0 {
				continue
			}
			s += math.Pow(pj, k)
		}
		return math.Abs(s - v)
	}

	res := optimize.Search(k0, 0.5, -1, residual, optimize.Bounds{
		MaxSteps: 200, MaxReversals: 60, TargetResidual: FitResidualTolerance,
		Registry: cfg.registry, Caller: cfg.label("power.frame"),
	})
	k := res.X

	prices := make([]float64, len(p))
	for i, pj := range p {
		if pj <= 0 {
			prices[i] = math.Inf(1)
			continue
		}
		prices[i] = math.Pow(pj, -k)
	}
	probability.CapPrices(prices, probability.CapFloor)
	return prices, nil
}

// fit: mirror of frame — search k until Σ m_j^(-1/k) == 1, i.e. the implied
// probabilities under the candidate k sum to unity. The initial estimate
// reuses the §4.1 formula against the market's raw (unfitted) overround and
// searches upward, the mirror image of frame's downward search.
func fitPower(prices []float64, cfg searchConfig) (Market, error) {
	vRaw := probability.Overround(prices)
	n := activeCount(prices)
	k0 := initialK0(vRaw, n)

	sumAt := func(k float64) float64 {
		s := 0.0
		for _, m := range prices {
			if probability.Scratched(m) {
				continue
			}
			s += math.Pow(m, -1.0/k)
		}
		return s
	}
	residual := func(k float64) float64 {
		return math.Abs(sumAt(k) - 1.0)
	}

	res := optimize.Search(k0, 0.5, 1, residual, optimize.Bounds{
		MaxSteps: 200, MaxReversals: 60, TargetResidual: FitResidualTolerance,
		Registry: cfg.registry, Caller: cfg.label("power.fit"),
	})
	k := res.X

	p := make([]float64, len(prices))
	for i, m := range prices {
		if probability.Scratched(m) {
			p[i] = 0
			continue
		}
		p[i] = math.Pow(m, -1.0/k)
	}
	v := probability.Overround(prices)
	return Market{Probabilities: p, Overround: Overround{Value: v, Method: Power}}, nil
}
