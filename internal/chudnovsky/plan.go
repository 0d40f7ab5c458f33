package chudnovsky

import (
	"math"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// Plan describes the working parameters of one run, derived from the
// requested digit count before any big-number value is constructed.
type Plan struct {
	// Digits is the number of fractional decimal digits requested.
	Digits uint64
	// Precision is the working precision P in bits,
	// ceil((Digits+2) * log2(10)).
	Precision uint
	// Iterations is the number of series terms N, Digits/14 + 1.
	Iterations uint64
}

// NewPlan converts a digit count into a working precision and an iteration
// count. Zero digits is valid: the plan still evaluates the k=0 term and the
// result renders as "3".
//
// Parameters:
//   - digits: The number of fractional digits to compute.
//
// Returns:
//   - Plan: The precision and iteration count for the run.
func NewPlan(digits uint64) Plan {
	bits := math.Ceil(float64(digits+2) * math.Log2(10))
	return Plan{
		Digits:     digits,
		Precision:  uint(bits),
		Iterations: digits/DigitsPerTerm + 1,
	}
}

// Validate reports whether the plan fits within big.Float limits.
//
// Returns:
//   - error: A ConfigError when the digit count exceeds MaxDigits.
func (p Plan) Validate() error {
	if p.Digits > MaxDigits {
		return apperrors.NewConfigError("digit count %d exceeds the maximum of %d", p.Digits, MaxDigits)
	}
	return nil
}
