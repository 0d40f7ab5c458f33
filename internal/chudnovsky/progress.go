package chudnovsky

import (
	"math"
	"sync/atomic"
)

// ProgressUpdate is a data transfer object (DTO) that encapsulates the
// progress state of a calculation. It is sent over a channel from the
// calculator to the user interface to provide asynchronous progress updates.
type ProgressUpdate struct {
	// CalculatorIndex is a unique identifier for the calculator instance, allowing
	// the UI to distinguish between multiple concurrent calculations.
	CalculatorIndex int
	// Value represents the normalized progress of the calculation, ranging from 0.0 to 1.0.
	Value float64
}

// ProgressReporter defines the functional type for a progress reporting
// callback. Core calculators call it from any worker goroutine, so
// implementations must be safe for concurrent use.
//
// Parameters:
//   - progress: The normalized progress value (0.0 to 1.0).
type ProgressReporter func(progress float64)

// progressSteps is the number of ProgressReportThreshold steps in a full run.
var progressSteps = uint64(math.Round(1 / ProgressReportThreshold))

// termProgress converts a shared count of completed units into throttled
// progress reports. It is safe for concurrent use by all workers of a run.
type termProgress struct {
	reporter ProgressReporter
	total    uint64
	done     atomic.Uint64
	// lastStep is the last reported progress expressed in whole
	// ProgressReportThreshold steps.
	lastStep atomic.Uint64
}

func newTermProgress(reporter ProgressReporter, total uint64) *termProgress {
	if reporter == nil {
		reporter = func(float64) {}
	}
	return &termProgress{reporter: reporter, total: total}
}

// add records n completed units and reports when progress has advanced by at
// least ProgressReportThreshold since the last report.
func (p *termProgress) add(n uint64) {
	if p.total == 0 {
		return
	}
	done := min(p.done.Add(n), p.total)
	step := done * progressSteps / p.total
	for {
		last := p.lastStep.Load()
		if step <= last {
			return
		}
		if p.lastStep.CompareAndSwap(last, step) {
			p.reporter(float64(done) / float64(p.total))
			return
		}
	}
}

// Done returns the number of units completed so far.
func (p *termProgress) Done() uint64 {
	return p.done.Load()
}
