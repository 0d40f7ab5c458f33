package chudnovsky

import (
	"errors"
	"math/big"
)

// ErrZeroSum is returned when the reduced series sum is zero, which makes
// C / sum undefined.
var ErrZeroSum = errors.New("chudnovsky: series sum is zero")

// Finalize returns π = C / sum at the run precision. It must only be called
// once every worker has merged into sum.
//
// Parameters:
//   - consts: The run constants holding C.
//   - sum: The fully reduced series sum.
//
// Returns:
//   - *big.Float: π rounded to consts.Precision bits.
//   - error: ErrZeroSum when sum is zero.
func Finalize(consts *Constants, sum *big.Float) (*big.Float, error) {
	if sum == nil || sum.Sign() == 0 {
		return nil, ErrZeroSum
	}
	pi := new(big.Float).SetPrec(consts.Precision)
	return pi.Quo(consts.C, sum), nil
}
