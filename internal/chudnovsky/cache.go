package chudnovsky

import "math/big"

// WorkerCache memoizes the factorial triple and the power term of the most
// recently evaluated index of one worker. Each recurrence carries its own
// validity flag and index, because under chunked schedules the two can fall
// out of step. A WorkerCache is owned by exactly one worker and must not be
// shared.
type WorkerCache struct {
	hasFactorials bool
	factorialK    uint64
	fact1         *big.Int // k!
	fact3         *big.Int // (3k)!
	fact6         *big.Int // (6k)!

	hasPower bool
	powerK   uint64
	power    *big.Int // XBase^k

	scratch *big.Int

	// Hits and Misses count recurrence lookups. A lookup that is served by
	// the k=0 base case or by extending the previous index is a hit.
	Hits   CacheCounters
	Misses CacheCounters
}

// CacheCounters counts lookups per recurrence.
type CacheCounters struct {
	Factorials uint64
	Power      uint64
}

// Total returns the sum of both recurrences.
func (c CacheCounters) Total() uint64 {
	return c.Factorials + c.Power
}

// NewWorkerCache returns an empty cache. Both recurrences start invalid.
func NewWorkerCache() *WorkerCache {
	return &WorkerCache{
		fact1:   new(big.Int),
		fact3:   new(big.Int),
		fact6:   new(big.Int),
		power:   new(big.Int),
		scratch: new(big.Int),
	}
}

// factorials returns k!, (3k)! and (6k)!, extending the cached triple when k
// directly follows the cached index and recomputing it through the kernel
// otherwise. The returned values are owned by the cache and are only valid
// until the next call.
func (c *WorkerCache) factorials(k uint64, kernel Kernel) (f1, f3, f6 *big.Int) {
	switch {
	case k == 0:
		c.fact1.SetInt64(1)
		c.fact3.SetInt64(1)
		c.fact6.SetInt64(1)
		c.Hits.Factorials++
	case c.hasFactorials && k == c.factorialK+1:
		c.fact1.Mul(c.fact1, c.scratch.SetUint64(k))
		mulRange(c.fact3, 3*k-2, 3*k, c.scratch)
		mulRange(c.fact6, 6*k-5, 6*k, c.scratch)
		c.Hits.Factorials++
	default:
		c.fact1.Set(kernel.Factorial(k))
		c.fact3.Set(kernel.Factorial(3 * k))
		c.fact6.Set(kernel.Factorial(6 * k))
		c.Misses.Factorials++
	}
	c.hasFactorials = true
	c.factorialK = k
	return c.fact1, c.fact3, c.fact6
}

// powerTerm returns XBase^k, extending the cached power when k directly follows
// the cached index. The returned value is owned by the cache.
func (c *WorkerCache) powerTerm(k uint64, base *big.Int, kernel Kernel) *big.Int {
	switch {
	case k == 0:
		c.power.SetInt64(1)
		c.Hits.Power++
	case c.hasPower && k == c.powerK+1:
		c.power.Mul(c.power, base)
		c.Hits.Power++
	default:
		c.power.Set(kernel.Power(base, k))
		c.Misses.Power++
	}
	c.hasPower = true
	c.powerK = k
	return c.power
}
