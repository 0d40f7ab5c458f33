//go:build gmp

package chudnovsky

import (
	"fmt"
	"math/big"
	"testing"
)

func TestGMPKernelMatchesBigKernel(t *testing.T) {
	t.Parallel()

	gk, bk := GMPKernel{}, BigKernel{}
	base := big.NewInt(XBase)
	for _, n := range []uint64{0, 1, 2, 7, 31, 120} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()
			if got, want := gk.Factorial(n), bk.Factorial(n); got.Cmp(want) != 0 {
				t.Errorf("Factorial(%d) = %s, want %s", n, got, want)
			}
			if got, want := gk.Power(base, n), bk.Power(base, n); got.Cmp(want) != 0 {
				t.Errorf("Power(XBase, %d) = %s, want %s", n, got, want)
			}
		})
	}
}

func TestGMPCalculatorRegistered(t *testing.T) {
	t.Parallel()
	if !GlobalFactory().Has("gmp") {
		t.Fatal("gmp calculator should be registered in the global factory")
	}
}
