package overround

// fractional is a Multiplicative variant applied separately to each subset
// of a partitioned field (spec §4.1: "used only by the 'fractional'
// single-pricing CLI"). This module carries no CLI and no subset-selection
// surface (spec Non-goal), so Fractional here operates over the single
// subset equal to the whole active field — behaviour identical to
// Multiplicative, as documented, with no partitioning applied.
func frameFractional(p []float64, v float64) ([]float64, error) {
	return frameMultiplicative(p, v)
}

func fitFractional(prices []float64) (Market, error) {
	m, err := fitMultiplicative(prices)
	if err != nil {
		return Market{}, err
	}
	m.Overround.Method = Fractional
	return m, nil
}
