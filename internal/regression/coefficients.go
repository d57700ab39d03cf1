package regression

import (
	"encoding/json"

	"github.com/sawpanic/racepricer/internal/perr"
)

// Coefficients pairs one regression formula (a list of top-level terms)
// with the offline-fitted real coefficient for each term, for a single
// target rank. Consumed at startup from a coefficients file produced by the
// (out-of-scope) offline training collaborator — spec §1, §6.
type Coefficients struct {
	Rank        int     `json:"rank"`
	RaceType    string  `json:"race_type"`
	RSquared    float64 `json:"r_squared"`
	Terms       []Term  `json:"-"`
	Coefficient []float64 `json:"-"`
}

// coefficientsWire is the on-disk shape: Terms/Coeffs kept as two parallel
// arrays of equal length, matching spec §6's description of the coefficient
// file format.
type coefficientsWire struct {
	Rank     int               `json:"rank"`
	RaceType string            `json:"race_type"`
	RSquared float64           `json:"r_squared"`
	Terms    []json.RawMessage `json:"terms"`
	Coeffs   []float64         `json:"coefficients"`
}

// ParseCoefficients decodes a coefficients JSON document (spec §6).
func ParseCoefficients(data []byte) (Coefficients, error) {
	var wire coefficientsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Coefficients{}, perr.Wrap(perr.InvalidMarket, err, "parse coefficients JSON")
	}
	if len(wire.Terms) != len(wire.Coeffs) {
		return Coefficients{}, perr.New(perr.InvalidMarket,
			"coefficients file has %d terms but %d coefficients", len(wire.Terms), len(wire.Coeffs))
	}

	terms := make([]Term, len(wire.Terms))
	for i, raw := range wire.Terms {
		t, err := parseTerm(raw)
		if err != nil {
			return Coefficients{}, err
		}
		terms[i] = t
	}

	return Coefficients{
		Rank:        wire.Rank,
		RaceType:    wire.RaceType,
		RSquared:    wire.RSquared,
		Terms:       terms,
		Coefficient: wire.Coeffs,
	}, nil
}

// parseTerm decodes one tagged-union term node:
//
//	"Intercept"
//	"Origin"
//	{"Variable":"name"}
//	{"Exp":[<term>,<int>]}
//	{"Product":[<term>,<term>]}
func parseTerm(raw json.RawMessage) (Term, error) {
	var tag string
	if err := json.Unmarshal(raw, &tag); err == nil {
		switch tag {
		case "Intercept":
			return Intercept(), nil
		case "Origin":
			return Origin(), nil
		default:
			return Term{}, perr.New(perr.InvalidMarket, "unknown bare term tag %q", tag)
		}
	}

	var variableForm struct {
		Variable *string `json:"Variable"`
	}
	if err := json.Unmarshal(raw, &variableForm); err == nil && variableForm.Variable != nil {
		return Variable(*variableForm.Variable), nil
	}

	var expForm struct {
		Exp *[2]json.RawMessage `json:"Exp"`
	}
	if err := json.Unmarshal(raw, &expForm); err == nil && expForm.Exp != nil {
		inner, err := parseTerm(expForm.Exp[0])
		if err != nil {
			return Term{}, err
		}
		var k int
		if err := json.Unmarshal(expForm.Exp[1], &k); err != nil {
			return Term{}, perr.Wrap(perr.InvalidMarket, err, "parse Exp power")
		}
		return Exp(inner, k), nil
	}

	var productForm struct {
		Product *[2]json.RawMessage `json:"Product"`
	}
	if err := json.Unmarshal(raw, &productForm); err == nil && productForm.Product != nil {
		left, err := parseTerm(productForm.Product[0])
		if err != nil {
			return Term{}, err
		}
		right, err := parseTerm(productForm.Product[1])
		if err != nil {
			return Term{}, err
		}
		return Product(left, right), nil
	}

	return Term{}, perr.New(perr.InvalidMarket, "unrecognised term node: %s", string(raw))
}

// MarshalTerm encodes a Term back into the tagged-union wire shape, for
// symmetry with ParseCoefficients (e.g. round-tripping a fitted model's
// formula back into a `.r.json` formula-only file for the offline
// collaborator).
func MarshalTerm(t Term) (json.RawMessage, error) {
	switch t.Kind {
	case KindIntercept:
		return json.Marshal("Intercept")
	case KindOrigin:
		return json.Marshal("Origin")
	case KindVariable:
		return json.Marshal(struct {
			Variable string `json:"Variable"`
		}{t.Name})
	case KindExp:
		inner, err := MarshalTerm(*t.Inner)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Exp [2]json.RawMessage `json:"Exp"`
		}{[2]json.RawMessage{inner, mustMarshalInt(t.Power)}})
	case KindProduct:
		left, err := MarshalTerm(*t.Left)
		if err != nil {
			return nil, err
		}
		right, err := MarshalTerm(*t.Right)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Product [2]json.RawMessage `json:"Product"`
		}{[2]json.RawMessage{left, right}})
	default:
		return nil, perr.New(perr.InvalidMarket, "unknown term kind %d", t.Kind)
	}
}

func mustMarshalInt(k int) json.RawMessage {
	b, _ := json.Marshal(k)
	return b
}
