package cli

import "github.com/agbru/picalc/internal/chudnovsky"

// pi80 holds the first 80 fractional digits of pi.
const pi80 = "3.14159265358979323846264338327950288419716939937510582097494459230781640628620899"

func piResult(count uint64) *chudnovsky.Result {
	return chudnovsky.ResultFromString(pi80, count)
}
