package chudnovsky

import "math/big"

// Kernel is the exact big-integer arithmetic used when a worker cache cannot
// extend a recurrence and a factorial or power has to be computed from
// scratch. The default kernel is backed by math/big; a GMP kernel is
// available with the "gmp" build tag.
type Kernel interface {
	// Name returns a short identifier for the kernel (e.g., "math/big").
	Name() string

	// Factorial returns n!. Factorial(0) is 1.
	Factorial(n uint64) *big.Int

	// Power returns base^exp with the sign of base preserved.
	// Power(base, 0) is 1.
	Power(base *big.Int, exp uint64) *big.Int
}

// BigKernel implements Kernel with the standard library's math/big.
type BigKernel struct{}

// Name returns the kernel identifier.
func (BigKernel) Name() string { return "math/big" }

// Factorial returns n! as the product of the range [1, n].
func (BigKernel) Factorial(n uint64) *big.Int {
	return new(big.Int).MulRange(1, int64(n))
}

// Power returns base^exp. big.Int.Exp keeps the sign of a negative base for
// odd exponents.
func (BigKernel) Power(base *big.Int, exp uint64) *big.Int {
	return new(big.Int).Exp(base, new(big.Int).SetUint64(exp), nil)
}

// mulRange multiplies z in place by every integer of [lo, hi].
func mulRange(z *big.Int, lo, hi uint64, scratch *big.Int) *big.Int {
	if lo > hi {
		return z
	}
	scratch.MulRange(int64(lo), int64(hi))
	return z.Mul(z, scratch)
}
