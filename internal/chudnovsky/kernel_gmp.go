//go:build gmp

// This file provides a Kernel backed by GMP, compiled only with the "gmp"
// build tag (go build -tags=gmp). It requires libgmp on the build host:
//   - Linux: sudo apt-get install libgmp-dev
//   - macOS: brew install gmp

package chudnovsky

import (
	"math/big"

	"github.com/ncw/gmp"
)

func init() {
	_ = RegisterCalculator("gmp", func() coreCalculator { return NewSeriesCalculator(GMPKernel{}) })
}

// GMPKernel implements Kernel with GMP arithmetic. Cache misses deep into a
// large run recompute factorials of millions of bits, which is where GMP's
// assembly multiplication pays for the cgo overhead.
type GMPKernel struct{}

// Name returns the kernel identifier.
func (GMPKernel) Name() string { return "gmp" }

// Factorial returns n!. Factors are multiplied as uint32, so n must stay
// below 2^32; the planner's MaxDigits keeps 6k far below that.
func (GMPKernel) Factorial(n uint64) *big.Int {
	acc := gmp.NewInt(1)
	for i := uint64(2); i <= n; i++ {
		acc.MulUint32(acc, uint32(i))
	}
	return gmpToStdBigInt(acc, false)
}

// Power returns base^exp by square-and-multiply on |base|, restoring the
// sign afterwards. Bases outside the int64 range fall back to math/big.
func (GMPKernel) Power(base *big.Int, exp uint64) *big.Int {
	if !base.IsInt64() {
		return BigKernel{}.Power(base, exp)
	}
	b := base.Int64()
	negative := b < 0 && exp&1 == 1
	if b < 0 {
		b = -b
	}

	acc := gmp.NewInt(1)
	sq := gmp.NewInt(b)
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			acc.Mul(acc, sq)
		}
		if e > 1 {
			sq.Mul(sq, sq)
		}
	}
	return gmpToStdBigInt(acc, negative)
}

// gmpToStdBigInt converts a non-negative gmp.Int to a math/big value,
// negating it when requested.
func gmpToStdBigInt(g *gmp.Int, negative bool) *big.Int {
	z := new(big.Int).SetBytes(g.Bytes())
	if negative {
		z.Neg(z)
	}
	return z
}
