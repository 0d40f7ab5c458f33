package calibration

import (
	"context"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
)

// minTrialTimeout bounds a single trial from below so a short global
// timeout still leaves room for a measurement.
const minTrialTimeout = 2 * time.Second

// calibrationResult holds the outcome of one trial.
type calibrationResult struct {
	Candidate Candidate
	Duration  time.Duration
	Err       error
}

// calibrationRunner runs trials of one calculator at CalibrationDigits.
type calibrationRunner struct {
	calc     chudnovsky.Calculator
	workers  int
	perTrial time.Duration
	digits   uint64
}

func newCalibrationRunner(calc chudnovsky.Calculator, workers int, timeout time.Duration) *calibrationRunner {
	return &calibrationRunner{
		calc:     calc,
		workers:  workers,
		perTrial: max(timeout, minTrialTimeout),
		digits:   CalibrationDigits,
	}
}

// runTrial measures one candidate, reporting progress on progressChan under
// index 0 when it is non-nil.
func (r *calibrationRunner) runTrial(ctx context.Context, c Candidate, progressChan chan<- chudnovsky.ProgressUpdate) calibrationResult {
	ctx, cancel := context.WithTimeout(ctx, r.perTrial)
	defer cancel()

	opts := chudnovsky.Options{Workers: r.workers, Schedule: c.Schedule, ChunkSize: c.Chunk}
	start := time.Now()
	_, err := r.calc.Calculate(ctx, progressChan, 0, r.digits, opts)
	return calibrationResult{Candidate: c, Duration: time.Since(start), Err: err}
}

// best returns the index of the fastest successful result, or -1.
func best(results []calibrationResult) int {
	idx := -1
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		if idx < 0 || res.Duration < results[idx].Duration {
			idx = i
		}
	}
	return idx
}
