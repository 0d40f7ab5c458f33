package chudnovsky

import (
	"context"
	"math/big"
	"sync"

	apperrors "github.com/agbru/picalc/internal/errors"
	"golang.org/x/sync/errgroup"
)

// SeriesCalculator evaluates the Chudnovsky series term by term. The index
// range [0, N) is split across worker goroutines by a Schedule; each worker
// keeps an incremental WorkerCache and a private partial sum, and merges it
// into the global sum exactly once, under a mutex.
type SeriesCalculator struct {
	kernel Kernel
	name   string
}

// NewSeriesCalculator returns a series calculator using kernel for cache
// misses. A nil kernel selects BigKernel.
func NewSeriesCalculator(kernel Kernel) *SeriesCalculator {
	if kernel == nil {
		kernel = BigKernel{}
	}
	return &SeriesCalculator{kernel: kernel, name: "Chudnovsky Series (" + kernel.Name() + ")"}
}

// Name returns the name of the strategy.
func (c *SeriesCalculator) Name() string {
	return c.name
}

// seriesWorker holds the state owned by one worker goroutine.
type seriesWorker struct {
	cache   *WorkerCache
	partial *big.Float
	terms   uint64
}

// CalculateCore reduces the series and returns π.
//
// The schedule is resolved before any term is evaluated, so an invalid
// schedule never starts work. Each worker checks the context once per index;
// a cancelled run discards every partial sum and returns the context error.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - reporter: The progress callback, called from worker goroutines.
//   - plan: The precision and iteration count.
//   - opts: Worker count and schedule.
//
// Returns:
//   - *Result: π and run statistics.
//   - error: A ConfigError, a context error, or ErrZeroSum.
func (c *SeriesCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, plan Plan, opts Options) (*Result, error) {
	if opts.Workers < 0 {
		return nil, apperrors.NewConfigError("worker count must be >= 1, got %d", opts.Workers)
	}
	opts = normalizeOptions(opts)
	schedule, err := ParseSchedule(opts.Schedule, opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	consts := NewConstants(plan.Precision)
	eval := NewEvaluator(consts, c.kernel)
	source := schedule.Partition(plan.Iterations, opts.Workers)
	progress := newTermProgress(reporter, plan.Iterations)

	var (
		mu     sync.Mutex
		global = new(big.Float).SetPrec(plan.Precision)
		result = &Result{Workers: opts.Workers, Schedule: schedule.Name()}
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := range opts.Workers {
		g.Go(func() error {
			wk := &seriesWorker{
				cache:   NewWorkerCache(),
				partial: new(big.Float).SetPrec(plan.Precision),
			}
			if err := wk.run(gctx, w, source, eval, progress); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			global.Add(global, wk.partial)
			result.Terms += wk.terms
			result.CacheHits.Factorials += wk.cache.Hits.Factorials
			result.CacheHits.Power += wk.cache.Hits.Power
			result.CacheMisses.Factorials += wk.cache.Misses.Factorials
			result.CacheMisses.Power += wk.cache.Misses.Power
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A worker that saw the parent context cancelled after its last index
	// still merged; the run as a whole is discarded.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pi, err := Finalize(consts, global)
	if err != nil {
		return nil, err
	}
	result.Pi = pi
	return result, nil
}

// run pulls chunks from source until it is exhausted and accumulates every
// term into the worker's partial sum.
func (wk *seriesWorker) run(ctx context.Context, worker int, source Source, eval *Evaluator, progress *termProgress) error {
	for {
		chunk, ok := source.Next(worker)
		if !ok {
			return nil
		}
		for k := chunk.Start; k < chunk.End; k++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			wk.partial.Add(wk.partial, eval.Term(k, wk.cache))
			wk.terms++
			progress.add(1)
		}
	}
}
