package chudnovsky

import (
	"context"
	"math/big"
	"math/bits"

	"github.com/agbru/picalc/internal/parallel"
)

// SplitCalculator evaluates the same series by binary splitting: the exact
// integers P(a,b), Q(a,b) and T(a,b) of each half range are combined up a
// recursion tree and a single division at the end produces π. It shares no
// code path with SeriesCalculator beyond the constants, which makes it a
// useful cross-check.
type SplitCalculator struct{}

// Name returns the name of the strategy.
func (c *SplitCalculator) Name() string {
	return "Chudnovsky Binary Splitting"
}

// pqt holds the binary splitting integers of one range.
type pqt struct {
	p, q, t *big.Int
}

// one is the neutral value returned for ranges abandoned after cancellation.
func one() pqt {
	return pqt{p: big.NewInt(1), q: big.NewInt(1), t: big.NewInt(0)}
}

type splitter struct {
	ctx      context.Context
	progress *termProgress
	errs     parallel.FirstError
}

// CalculateCore computes π = C * Q(0,N) / T(0,N). The top levels of the
// recursion run in parallel, up to ceil(log2(Workers)) levels deep.
func (c *SplitCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, plan Plan, opts Options) (*Result, error) {
	opts = normalizeOptions(opts)
	s := &splitter{ctx: ctx, progress: newTermProgress(reporter, plan.Iterations)}
	depth := bits.Len(uint(opts.Workers - 1))

	r := s.split(0, plan.Iterations, depth)
	if err := s.errs.Err(); err != nil {
		return nil, err
	}

	consts := NewConstants(plan.Precision)
	t := new(big.Float).SetPrec(plan.Precision).SetInt(r.t)
	if t.Sign() == 0 {
		return nil, ErrZeroSum
	}
	pi := new(big.Float).SetPrec(plan.Precision).SetInt(r.q)
	pi.Mul(pi, consts.C)
	pi.Quo(pi, t)

	return &Result{Pi: pi, Workers: opts.Workers, Terms: plan.Iterations}, nil
}

func (s *splitter) split(a, b uint64, depth int) pqt {
	if s.errs.Stopped(s.ctx) {
		return one()
	}
	if b-a == 1 {
		defer s.progress.add(1)
		return leaf(a)
	}

	m := (a + b) / 2
	var left, right pqt
	concurrent := depth > 0 && b-a > SplitLeafThreshold
	next := 0
	if concurrent {
		next = depth - 1
	}
	parallel.Fork(concurrent,
		func() { left = s.split(a, m, next) },
		func() { right = s.split(m, b, next) })

	// T(a,b) = Q(m,b)*T(a,m) + P(a,m)*T(m,b)
	left.t.Mul(left.t, right.q)
	right.t.Mul(right.t, left.p)
	left.t.Add(left.t, right.t)
	left.p.Mul(left.p, right.p)
	left.q.Mul(left.q, right.q)
	return left
}

// leaf returns the single-term values for index a.
func leaf(a uint64) pqt {
	if a == 0 {
		return pqt{p: big.NewInt(1), q: big.NewInt(1), t: big.NewInt(LAdd)}
	}
	ba := new(big.Int).SetUint64(a)

	p := new(big.Int).SetUint64(6*a - 5)
	p.Mul(p, new(big.Int).SetUint64(2*a-1))
	p.Mul(p, new(big.Int).SetUint64(6*a-1))

	q := new(big.Int).Mul(ba, ba)
	q.Mul(q, ba)
	q.Mul(q, big.NewInt(splitQFactor))

	t := new(big.Int).Mul(ba, big.NewInt(LK))
	t.Add(t, big.NewInt(LAdd))
	t.Mul(t, p)
	if a&1 == 1 {
		t.Neg(t)
	}
	return pqt{p: p, q: q, t: t}
}
