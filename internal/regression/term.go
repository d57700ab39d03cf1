// Package regression evaluates the offline-fitted linear formulas that seed
// weight-matrix rows 2..N from Win probabilities and per-runner features
// (spec §4.4). The formula tree is a small closed sum type, following the
// teacher's tagged-variant idiom (e.g. a bytecode/instruction sum type)
// rather than an open interface with dynamic dispatch — there are exactly
// five node kinds and they never grow at runtime.
package regression

import "github.com/sawpanic/racepricer/internal/perr"

// Kind tags which of the five node shapes a Term is.
type Kind int

const (
	KindVariable Kind = iota
	KindExp
	KindProduct
	KindIntercept
	KindOrigin
)

// Term is a node in a regression formula tree. Exactly one of the fields is
// meaningful for a given Kind:
//
//	KindVariable:  Name
//	KindExp:       Inner, Power
//	KindProduct:   Left, Right
//	KindIntercept: (none — constant 1)
//	KindOrigin:    (none — constant 0)
type Term struct {
	Kind  Kind
	Name  string
	Inner *Term
	Power int
	Left  *Term
	Right *Term
}

// Variable constructs a Variable(name) term.
func Variable(name string) Term { return Term{Kind: KindVariable, Name: name} }

// Exp constructs an Exp(inner, k) term. k must be >= 0.
func Exp(inner Term, k int) Term { return Term{Kind: KindExp, Inner: &inner, Power: k} }

// Product constructs a Product(a, b) term.
func Product(a, b Term) Term { return Term{Kind: KindProduct, Left: &a, Right: &b} }

// Intercept is the constant-1 term.
func Intercept() Term { return Term{Kind: KindIntercept} }

// Origin is the constant-0 term, present so a formula can state explicitly
// that it has no intercept.
func Origin() Term { return Term{Kind: KindOrigin} }

// Inputs is the named map of real-valued features a Term evaluates against.
type Inputs map[string]float64

// Eval evaluates a term against inputs, failing with EvalError if a
// Variable name is absent.
func Eval(t Term, inputs Inputs) (float64, error) {
	switch t.Kind {
	case KindVariable:
		v, ok := inputs[t.Name]
		if !ok {
			return 0, perr.New(perr.EvalError, "regression formula references missing variable %q", t.Name)
		}
		return v, nil
	case KindExp:
		base, err := Eval(*t.Inner, inputs)
		if err != nil {
			return 0, err
		}
		return intPow(base, t.Power), nil
	case KindProduct:
		a, err := Eval(*t.Left, inputs)
		if err != nil {
			return 0, err
		}
		b, err := Eval(*t.Right, inputs)
		if err != nil {
			return 0, err
		}
		return a * b, nil
	case KindIntercept:
		return 1, nil
	case KindOrigin:
		return 0, nil
	default:
		return 0, perr.New(perr.EvalError, "unknown term kind %d", t.Kind)
	}
}

func intPow(base float64, k int) float64 {
	if k <= 0 {
		return 1
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= base
	}
	return result
}
