package regression

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/racepricer/internal/perr"
)

func TestEvalVariable(t *testing.T) {
	v, err := Eval(Variable("x"), Inputs{"x": 3.5})
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}

func TestEvalVariableMissingFails(t *testing.T) {
	_, err := Eval(Variable("y"), Inputs{"x": 1})
	require.Error(t, err)
	assert.True(t, perr.Is(err, perr.EvalError))
}

func TestEvalExp(t *testing.T) {
	v, err := Eval(Exp(Variable("x"), 3), Inputs{"x": 2})
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)
}

func TestEvalExpZeroPowerIsOne(t *testing.T) {
	v, err := Eval(Exp(Variable("x"), 0), Inputs{"x": 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestEvalProduct(t *testing.T) {
	v, err := Eval(Product(Variable("x"), Variable("y")), Inputs{"x": 3, "y": 4})
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)
}

func TestEvalIntercept(t *testing.T) {
	v, err := Eval(Intercept(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestEvalOrigin(t *testing.T) {
	v, err := Eval(Origin(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestPredictLinearCombination(t *testing.T) {
	c := Coefficients{
		Terms:       []Term{Variable("x"), Intercept()},
		Coefficient: []float64{2.0, 1.0},
	}
	v, err := Predict(c, Inputs{"x": 5})
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)
}

func TestParseCoefficientsThenPredict(t *testing.T) {
	doc := `{
		"rank": 2,
		"race_type": "thoroughbred",
		"r_squared": 0.81,
		"terms": ["Intercept", {"Variable":"win_weight"}, {"Exp":[{"Variable":"win_weight"},2]}, {"Product":[{"Variable":"win_weight"},{"Variable":"active_count"}]}],
		"coefficients": [0.05, 1.2, -0.3, 0.01]
	}`
	c, err := ParseCoefficients([]byte(doc))
	require.NoError(t, err)
	require.Len(t, c.Terms, 4)
	assert.Equal(t, 2, c.Rank)
	assert.Equal(t, "thoroughbred", c.RaceType)

	v, err := Predict(c, Inputs{"win_weight": 0.3, "active_count": 8})
	require.NoError(t, err)
	want := 0.05 + 1.2*0.3 + (-0.3)*(0.3*0.3) + 0.01*(0.3*8)
	assert.InDelta(t, want, v, 1e-9)
}

func TestParseCoefficientsMismatchedLengths(t *testing.T) {
	doc := `{"terms": ["Intercept"], "coefficients": [1, 2]}`
	_, err := ParseCoefficients([]byte(doc))
	require.Error(t, err)
}

func TestParseCoefficientsUnknownTag(t *testing.T) {
	doc := `{"terms": ["Bogus"], "coefficients": [1]}`
	_, err := ParseCoefficients([]byte(doc))
	require.Error(t, err)
}

func TestMarshalTermRoundTrips(t *testing.T) {
	term := Product(Exp(Variable("win_weight"), 2), Intercept())
	raw, err := MarshalTerm(term)
	require.NoError(t, err)

	parsed, err := parseTerm(json.RawMessage(raw))
	require.NoError(t, err)

	inputs := Inputs{"win_weight": 3}
	want, err := Eval(term, inputs)
	require.NoError(t, err)
	got, err := Eval(parsed, inputs)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSeedRowClampsNegativeToZero(t *testing.T) {
	c := Coefficients{
		Terms:       []Term{Variable("win_weight"), Intercept()},
		Coefficient: []float64{1.0, -0.5},
	}
	row, err := SeedRow(c, []float64{0.1, 0.9}, []Inputs{{}, {}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, row[0]) // 0.1 - 0.5 < 0, clamped
	assert.InDelta(t, 0.4, row[1], 1e-9)
}
