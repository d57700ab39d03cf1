package regression

import "github.com/sawpanic/racepricer/internal/perr"

// Predict evaluates a Coefficients formula against inputs:
// Σ coeff_k · term_value_k.
func Predict(c Coefficients, inputs Inputs) (float64, error) {
	if len(c.Terms) != len(c.Coefficient) {
		return 0, perr.New(perr.InvalidMarket,
			"coefficients mismatch: %d terms, %d coefficients", len(c.Terms), len(c.Coefficient))
	}
	sum := 0.0
	for i, term := range c.Terms {
		v, err := Eval(term, inputs)
		if err != nil {
			return 0, err
		}
		sum += c.Coefficient[i] * v
	}
	return sum, nil
}

// SeedRow evaluates one Coefficients formula per active runner to produce a
// raw (not-yet-normalised) W row from the Win weight row and whatever other
// named features the caller supplies per runner (spec §4.4: "its Win weight
// W[0,j], active-runner count, etc."). featuresPerRunner[j] is merged over
// a copy of baseInputs so callers can share common features (e.g.
// "active_count") across all runners in one call.
func SeedRow(c Coefficients, winWeights []float64, featuresPerRunner []Inputs, baseInputs Inputs) ([]float64, error) {
	if len(winWeights) != len(featuresPerRunner) {
		return nil, perr.New(perr.InvalidMarket,
			"winWeights length %d != featuresPerRunner length %d", len(winWeights), len(featuresPerRunner))
	}
	row := make([]float64, len(winWeights))
	for j, winWeight := range winWeights {
		inputs := make(Inputs, len(baseInputs)+len(featuresPerRunner[j])+1)
		for k, v := range baseInputs {
			inputs[k] = v
		}
		for k, v := range featuresPerRunner[j] {
			inputs[k] = v
		}
		inputs["win_weight"] = winWeight

		v, err := Predict(c, inputs)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			v = 0
		}
		row[j] = v
	}
	return row, nil
}
