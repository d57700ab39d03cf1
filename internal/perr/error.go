// Package perr defines the pricing engine's failure-kind taxonomy.
//
// Errors propagate as plain return values; there is no panic-based control
// flow anywhere in this module. A PricingError always names one of the
// fixed Kind values so callers can branch on cause rather than string-match
// a message.
package perr

import "fmt"

// Kind identifies the category of a pricing failure.
type Kind string

const (
	InvalidMarket            Kind = "invalid_market"
	OverroundUnsatisfiable   Kind = "overround_unsatisfiable"
	ConvergenceExceeded      Kind = "convergence_exceeded"
	InsufficientInformation  Kind = "insufficient_information"
	InvalidSelection         Kind = "invalid_selection"
	EvalError                Kind = "eval_error"
)

// PricingError is the concrete error type returned by the pricing
// operations in this module. internal/config's YAML loader is the exception:
// it returns plain fmt-wrapped errors.
type PricingError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *PricingError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PricingError) Unwrap() error { return e.cause }

// New builds a PricingError with no wrapped cause.
func New(kind Kind, format string, args ...interface{}) *PricingError {
	return &PricingError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a PricingError around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *PricingError {
	return &PricingError{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Is reports whether err is a PricingError of the given kind.
func Is(err error, kind Kind) bool {
	pe, ok := err.(*PricingError)
	return ok && pe.Kind == kind
}
