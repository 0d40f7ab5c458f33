// Package chudnovsky computes the decimal expansion of π with the Chudnovsky
// series. It exposes a Calculator interface over interchangeable evaluation
// strategies: a parallel term-by-term series reduction with per-worker
// incremental caches, and a binary-splitting evaluation used as an
// independent cross-check.
package chudnovsky

//go:generate mockgen -source=calculator.go -destination=mocks/mock_calculator.go -package=mocks

import (
	"context"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pi_calculations_total",
			Help: "The total number of pi calculations processed",
		},
		[]string{"algorithm", "status"},
	)
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pi_calculation_duration_seconds",
			Help: "The duration of pi calculations in seconds",
		},
		[]string{"algorithm"},
	)
	termsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pi_series_terms_total",
			Help: "The total number of series terms evaluated",
		},
		[]string{"algorithm"},
	)
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pi_worker_cache_lookups_total",
			Help: "Worker cache lookups by recurrence and outcome",
		},
		[]string{"recurrence", "outcome"},
	)
)

// Result is the outcome of one calculation.
type Result struct {
	// Pi is π rounded to Plan.Precision bits.
	Pi *big.Float
	// Plan holds the precision and iteration count the run used.
	Plan Plan
	// Workers and Schedule describe how the series was partitioned. Schedule
	// is empty for calculators that do not use one.
	Workers  int
	Schedule string
	// Terms is the number of series terms evaluated.
	Terms uint64
	// CacheHits and CacheMisses aggregate the worker cache counters.
	CacheHits   CacheCounters
	CacheMisses CacheCounters
}

// Calculator is the public interface of a π calculator. It is the
// abstraction used by the orchestration layer to run and compare strategies.
type Calculator interface {
	// Calculate computes π to the given number of fractional digits. It is
	// safe for concurrent use and returns ctx.Err() when the context is
	// cancelled before the series is fully reduced. Progress updates are
	// sent asynchronously to progressChan.
	//
	// Parameters:
	//   - ctx: The context for managing cancellation and deadlines.
	//   - progressChan: The channel for sending progress updates (may be nil).
	//   - calcIndex: A unique index for the calculator instance.
	//   - digits: The number of fractional digits D.
	//   - opts: Configuration options for the calculation.
	//
	// Returns:
	//   - *Result: π and run statistics.
	//   - error: An error if one occurred (e.g., context cancellation).
	Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, digits uint64, opts Options) (*Result, error)

	// Name returns the display name of the strategy.
	Name() string
}

// coreCalculator is the internal interface of a pure evaluation strategy.
type coreCalculator interface {
	CalculateCore(ctx context.Context, reporter ProgressReporter, plan Plan, opts Options) (*Result, error)
	Name() string
}

// PiCalculator decorates a coreCalculator with planning, progress
// notification, tracing, metrics and debug logging.
type PiCalculator struct {
	core coreCalculator
}

// NewCalculator wraps core in a PiCalculator. It panics if core is nil.
func NewCalculator(core coreCalculator) Calculator {
	if core == nil {
		panic("chudnovsky: the `coreCalculator` implementation cannot be nil")
	}
	return &PiCalculator{core: core}
}

// Name returns the name of the wrapped strategy.
func (c *PiCalculator) Name() string {
	return c.core.Name()
}

// Calculate implements Calculator. Progress goes to progressChan when it is
// non-nil, to the progress gauge and to the global logger at debug level.
func (c *PiCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, digits uint64, opts Options) (*Result, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	subject.Register(NewMetricsObserver())
	subject.Register(NewLoggingObserver(log.Logger, 0.1))
	return c.CalculateWithObservers(ctx, subject, calcIndex, digits, opts)
}

// CalculateWithObservers runs the calculation and notifies every observer
// registered on subject. A nil subject disables progress reporting.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - subject: The progress subject with registered observers.
//   - calcIndex: A unique index for the calculator instance.
//   - digits: The number of fractional digits D.
//   - opts: Configuration options for the calculation.
//
// Returns:
//   - *Result: π and run statistics.
//   - error: An error if one occurred.
func (c *PiCalculator) CalculateWithObservers(ctx context.Context, subject *ProgressSubject, calcIndex int, digits uint64, opts Options) (result *Result, err error) {
	plan := NewPlan(digits)
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("chudnovsky").Start(ctx, "Calculate")
	span.SetAttributes(
		attribute.String("algorithm", c.core.Name()),
		attribute.Int64("digits", int64(digits)),
		attribute.Int64("precision_bits", int64(plan.Precision)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		algoName := c.core.Name()
		calculationsTotal.WithLabelValues(algoName, status).Inc()
		calculationDuration.WithLabelValues(algoName).Observe(duration)

		event := log.Debug().
			Str("algo", algoName).
			Uint64("digits", digits).
			Uint("precision", plan.Precision).
			Uint64("iterations", plan.Iterations).
			Float64("duration", duration).
			Str("status", status)
		if result != nil {
			termsTotal.WithLabelValues(algoName).Add(float64(result.Terms))
			recordCacheMetrics(result)
			event = event.
				Int("workers", result.Workers).
				Str("schedule", result.Schedule).
				Uint64("cache_hits", result.CacheHits.Total()).
				Uint64("cache_misses", result.CacheMisses.Total())
		}
		event.Msg("calculation completed")
	}()

	reporter := ProgressReporter(func(float64) {})
	if subject != nil {
		reporter = subject.AsProgressReporter(calcIndex)
	}

	result, err = c.core.CalculateCore(ctx, reporter, plan, opts)
	if err != nil {
		return nil, err
	}
	result.Plan = plan
	reporter(1.0)
	return result, nil
}

func recordCacheMetrics(r *Result) {
	cacheLookups.WithLabelValues("factorials", "hit").Add(float64(r.CacheHits.Factorials))
	cacheLookups.WithLabelValues("factorials", "miss").Add(float64(r.CacheMisses.Factorials))
	cacheLookups.WithLabelValues("power", "hit").Add(float64(r.CacheHits.Power))
	cacheLookups.WithLabelValues("power", "miss").Add(float64(r.CacheMisses.Power))
}
