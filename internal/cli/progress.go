package cli

import (
	"fmt"
	"time"
)

const (
	// etaWarmup is the elapsed time before any estimate is shown.
	etaWarmup = 100 * time.Millisecond
	// etaSmoothing is the weight of the previous rate in the moving average.
	etaSmoothing = 0.7
	// etaCap bounds the displayed estimate.
	etaCap = 24 * time.Hour
)

// ProgressTracker aggregates the progress of concurrent calculators and
// estimates the remaining time from an exponentially smoothed progress rate.
// It is owned by a single display goroutine.
type ProgressTracker struct {
	progresses []float64
	now        func() time.Time
	start      time.Time
	lastAt     time.Time
	lastAvg    float64
	rate       float64 // average progress per second
}

// NewProgressTracker returns a tracker for numCalculators calculators.
func NewProgressTracker(numCalculators int) *ProgressTracker {
	return newProgressTrackerAt(numCalculators, time.Now)
}

func newProgressTrackerAt(numCalculators int, now func() time.Time) *ProgressTracker {
	start := now()
	return &ProgressTracker{
		progresses: make([]float64, max(numCalculators, 0)),
		now:        now,
		start:      start,
		lastAt:     start,
	}
}

// Update records value for calculator index and refreshes the rate estimate.
// Out-of-range indices are ignored.
func (p *ProgressTracker) Update(index int, value float64) {
	if index < 0 || index >= len(p.progresses) {
		return
	}
	p.progresses[index] = value

	now := p.now()
	avg := p.Average()
	elapsed := now.Sub(p.start)
	if elapsed < etaWarmup || avg <= 0.001 {
		p.lastAt, p.lastAvg = now, avg
		return
	}
	dt := now.Sub(p.lastAt).Seconds()
	if dt < 0.05 {
		return
	}
	if delta := avg - p.lastAvg; delta > 0 {
		if p.rate == 0 {
			p.rate = avg / elapsed.Seconds()
		} else {
			p.rate = etaSmoothing*p.rate + (1-etaSmoothing)*delta/dt
		}
	}
	p.lastAt, p.lastAvg = now, avg
}

// Average returns the mean progress over all calculators, in [0, 1].
func (p *ProgressTracker) Average() float64 {
	if len(p.progresses) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.progresses {
		sum += v
	}
	return sum / float64(len(p.progresses))
}

// ETA returns the estimated time remaining, or 0 when no estimate exists yet.
func (p *ProgressTracker) ETA() time.Duration {
	avg := p.Average()
	if p.rate <= 0 || avg >= 1 {
		return 0
	}
	eta := time.Duration((1 - avg) / p.rate * float64(time.Second))
	return min(eta, etaCap)
}

// FormatETA renders an estimate as "< 1s", "42s", "2m30s" or "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h, m := int(eta.Hours()), int(eta.Minutes())%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, m)
}

// FormatProgressBarWithETA combines percentage, bar and estimate, e.g.
// " 45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
