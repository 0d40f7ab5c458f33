package chudnovsky

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ChannelObserver forwards progress to a ProgressUpdate channel, the form
// consumed by the CLI progress display. Sends never block: when the channel
// is full the update is dropped and the display catches up on the next one.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver returns an observer writing to ch. A nil channel
// discards every update.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver.
func (o *ChannelObserver) Update(calcIndex int, progress float64) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- ProgressUpdate{CalculatorIndex: calcIndex, Value: min(progress, 1.0)}:
	default:
	}
}

// LoggingObserver writes a debug event each time a calculator's progress
// advances by at least threshold.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64

	mu   sync.Mutex
	last map[int]float64
}

// NewLoggingObserver returns a LoggingObserver. A non-positive threshold
// defaults to 0.1 (every 10%).
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{logger: logger, threshold: threshold, last: make(map[int]float64)}
}

// Update implements ProgressObserver.
func (o *LoggingObserver) Update(calcIndex int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	last, seen := o.last[calcIndex]
	if seen && progress < 1.0 && progress-last < o.threshold {
		return
	}
	o.last[calcIndex] = progress
	o.logger.Debug().
		Int("calculator", calcIndex).
		Float64("progress", progress).
		Msg("series progress")
}

// progressGauge is registered once for the whole process.
var progressGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pi_calculation_progress",
		Help: "Current progress of pi calculations (0.0 to 1.0)",
	},
	[]string{"calculator_index"},
)

// MetricsObserver exports progress to the pi_calculation_progress gauge.
type MetricsObserver struct {
	gauge *prometheus.GaugeVec
}

// NewMetricsObserver returns an observer bound to the shared progress gauge.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{gauge: progressGauge}
}

// Update implements ProgressObserver.
func (o *MetricsObserver) Update(calcIndex int, progress float64) {
	o.gauge.WithLabelValues(strconv.Itoa(calcIndex)).Set(progress)
}

// ResetMetrics clears the gauge for every calculator index.
func (o *MetricsObserver) ResetMetrics() {
	o.gauge.Reset()
}
