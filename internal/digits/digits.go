// Package digits renders a high-precision π value as the decimal digit
// stream of the output file: a header, the leading "3." and the fractional
// digits, written through a bounded buffer with optional grouping.
package digits

import (
	"math/big"
	"strconv"
	"strings"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// GuardDigits is the number of significant digits requested beyond the
// fractional digits that are emitted.
const GuardDigits = 2

// Digits is the decimal expansion of a value of the form 3.xxx.
type Digits struct {
	// Mantissa holds Count+2 significant decimal digits without a decimal
	// point, starting with the integer digit.
	Mantissa string
	// Exponent is the decimal exponent in 0.Mantissa × 10^Exponent form,
	// so a value in [1, 10) has exponent 1.
	Exponent int
	// Count is the number of fractional digits to emit.
	Count uint64
}

// Fractional returns the Count digits following the integer digit.
func (d Digits) Fractional() string {
	return d.Mantissa[1 : 1+d.Count]
}

// Expand converts pi to Count+2 significant decimal digits and checks that
// the value renders as 3.xxx. It performs no I/O, so callers can validate a
// value before any output is created.
//
// Parameters:
//   - pi: The computed value.
//   - count: The number of fractional digits D.
//
// Returns:
//   - Digits: The digit string and its exponent.
//   - error: A NumericError when pi cannot be converted or its decimal
//     exponent is not 1.
func Expand(pi *big.Float, count uint64) (Digits, error) {
	if pi == nil {
		return Digits{}, apperrors.NewNumericError(0, "no value to convert")
	}
	if pi.IsInf() || pi.Sign() <= 0 {
		return Digits{}, apperrors.NewNumericError(0, "cannot convert %s to a digit string", pi.Text('g', 10))
	}

	text := pi.Text('e', int(count)+GuardDigits-1)
	mantissa, expText, ok := strings.Cut(text, "e")
	if !ok {
		return Digits{}, apperrors.NewNumericError(0, "unexpected digit string %.20q", text)
	}
	exp10, err := strconv.Atoi(expText)
	if err != nil {
		return Digits{}, apperrors.NewNumericError(0, "unexpected exponent %q", expText)
	}
	d := Digits{
		Mantissa: strings.Replace(mantissa, ".", "", 1),
		Exponent: exp10 + 1,
		Count:    count,
	}
	if uint64(len(d.Mantissa)) != count+GuardDigits {
		return Digits{}, apperrors.NewNumericError(d.Exponent, "got %d significant digits, want %d", len(d.Mantissa), count+GuardDigits)
	}
	if d.Exponent != 1 {
		return Digits{}, apperrors.NewNumericError(d.Exponent, "decimal exponent is %d, want 1", d.Exponent)
	}
	return d, nil
}
