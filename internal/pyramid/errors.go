package pyramid

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against a *ValidationError.
var (
	ErrInvalidPriceRange = errors.New("invalid price range")
	ErrInvalidCapital    = errors.New("invalid capital")
)

// ValidationError reports a rejected StrategyInput.
type ValidationError struct {
	Code  error
	Field string
	Value float64
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s (%s=%g)", e.Code, e.Msg, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Code }

// CodeName returns a stable identifier for the error kind.
func (e *ValidationError) CodeName() string {
	switch e.Code {
	case ErrInvalidPriceRange:
		return "InvalidPriceRange"
	case ErrInvalidCapital:
		return "InvalidCapital"
	default:
		return "ValidationError"
	}
}
