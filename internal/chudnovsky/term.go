package chudnovsky

import "math/big"

// Evaluator computes individual series terms. It only reads the shared
// Constants, so one Evaluator may be used by every worker of a run as long
// as each worker passes its own WorkerCache.
type Evaluator struct {
	consts *Constants
	kernel Kernel
}

// NewEvaluator returns an Evaluator bound to the run constants. A nil kernel
// selects BigKernel.
//
// Parameters:
//   - consts: The immutable run constants.
//   - kernel: The arithmetic used on cache misses.
//
// Returns:
//   - *Evaluator: A new evaluator.
func NewEvaluator(consts *Constants, kernel Kernel) *Evaluator {
	if kernel == nil {
		kernel = BigKernel{}
	}
	return &Evaluator{consts: consts, kernel: kernel}
}

// Constants returns the run constants the evaluator reads.
func (e *Evaluator) Constants() *Constants {
	return e.consts
}

// Components returns the exact integer parts of term k:
//
//	M_k = (6k)! / ((3k)! * (k!)^3)
//	L_k = 545140134*k + 13591409
//	X_k = (-262537412640768000)^k
//
// When cache is nil every value is computed directly through the kernel.
// The returned integers are freshly allocated and owned by the caller.
func (e *Evaluator) Components(k uint64, cache *WorkerCache) (m, l, x *big.Int) {
	var f1, f3, f6 *big.Int
	if cache != nil {
		f1, f3, f6 = cache.factorials(k, e.kernel)
		x = new(big.Int).Set(cache.powerTerm(k, e.consts.XBase, e.kernel))
	} else {
		f1 = e.kernel.Factorial(k)
		f3 = e.kernel.Factorial(3 * k)
		f6 = e.kernel.Factorial(6 * k)
		x = e.kernel.Power(e.consts.XBase, k)
	}

	den := new(big.Int).Mul(f1, f1)
	den.Mul(den, f1)
	den.Mul(den, f3)
	m = new(big.Int).Quo(f6, den)

	l = new(big.Int).SetUint64(k)
	l.Mul(l, e.consts.LK)
	l.Add(l, e.consts.LAdd)
	return m, l, x
}

// Term returns term_k = M_k * L_k / X_k rounded to the run precision. The
// sign alternates with k because X_k does.
func (e *Evaluator) Term(k uint64, cache *WorkerCache) *big.Float {
	m, l, x := e.Components(k, cache)
	m.Mul(m, l)

	prec := e.consts.Precision
	num := new(big.Float).SetPrec(prec).SetInt(m)
	den := new(big.Float).SetPrec(prec).SetInt(x)
	return num.Quo(num, den)
}
