// The cli package provides the command-line presentation layer of the pi
// calculator. It handles the asynchronous display of calculation progress,
// the console report of a finished run and the digit file export.
package cli

//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/digits"
	"github.com/agbru/picalc/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display: microseconds
// below a millisecond, milliseconds below a second, the default string
// representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// PreviewDigits is the number of leading digits shown when the full
	// expansion is not requested.
	PreviewDigits = 50
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner abstracts the terminal spinner so that DisplayProgress can be
// tested without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	return &realSpinner{spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)}
}

// progressBar renders a bar of width cells, progress clamped to [0, 1].
func progressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}

func progressLabel(numCalculators int) string {
	if numCalculators > 1 {
		return "Avg progress"
	}
	return "Progress"
}

// DisplayProgress renders a spinner with the averaged progress and ETA of
// numCalculators concurrent calculations until progressChan is closed. It
// is meant to run in its own goroutine and calls wg.Done on return.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numCalculators: The number of calculators contributing to the progress.
//   - out: The io.Writer to which the progress bar is rendered.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan chudnovsky.ProgressUpdate, numCalculators int, out io.Writer) {
	defer wg.Done()
	if numCalculators <= 0 {
		for range progressChan {
		}
		return
	}

	tracker := NewProgressTracker(numCalculators)
	label := progressLabel(numCalculators)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintf(out, "%s: %6.2f%% [%s] ETA: < 1s\n", label, 100.0, progressBar(1, ProgressBarWidth))
				return
			}
			tracker.Update(update.CalculatorIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label,
				FormatProgressBarWithETA(tracker.Average(), tracker.ETA(), ProgressBarWidth)))
		}
	}
}

// DisplayResult prints the console report of a finished calculation: the
// "Total time" line, an optional block of run details and
// the computed digits (a preview unless verbose is set).
//
// Parameters:
//   - res: The calculation result.
//   - d: The expanded digits of res.Pi.
//   - duration: The wall-clock time of the calculation.
//   - verbose: Print every digit instead of a preview.
//   - details: Print plan and cache statistics.
//   - out: The io.Writer for the output.
func DisplayResult(res *chudnovsky.Result, d digits.Digits, duration time.Duration, verbose, details bool, out io.Writer) {
	fmt.Fprintf(out, "Total time: %.2f seconds\n", duration.Seconds())

	if details {
		fmt.Fprintf(out, "\n%s--- Run details ---%s\n", ui.ColorBold(), ui.ColorReset())
		fmt.Fprintf(out, "Calculation time   : %s%s%s\n", ui.ColorGreen(), FormatExecutionDuration(duration), ui.ColorReset())
		fmt.Fprintf(out, "Working precision  : %s%d%s bits\n", ui.ColorCyan(), res.Plan.Precision, ui.ColorReset())
		fmt.Fprintf(out, "Series terms       : %s%d%s\n", ui.ColorCyan(), res.Terms, ui.ColorReset())
		if res.Schedule != "" {
			fmt.Fprintf(out, "Workers / schedule : %s%d%s / %s%s%s\n",
				ui.ColorCyan(), res.Workers, ui.ColorReset(), ui.ColorCyan(), res.Schedule, ui.ColorReset())
			fmt.Fprintf(out, "Cache hits/misses  : %s%d%s / %s%d%s\n",
				ui.ColorCyan(), res.CacheHits.Total(), ui.ColorReset(), ui.ColorCyan(), res.CacheMisses.Total(), ui.ColorReset())
		}
	}

	frac := d.Fractional()
	fmt.Fprintf(out, "\n%s--- Calculated value ---%s\n", ui.ColorBold(), ui.ColorReset())
	switch {
	case frac == "":
		fmt.Fprintf(out, "pi = %s3%s\n", ui.ColorGreen(), ui.ColorReset())
	case verbose || len(frac) <= PreviewDigits:
		fmt.Fprintf(out, "pi = %s3.%s%s\n", ui.ColorGreen(), frac, ui.ColorReset())
	default:
		fmt.Fprintf(out, "pi = %s3.%s...%s (%d digits)\n", ui.ColorGreen(), frac[:PreviewDigits], ui.ColorReset(), len(frac))
		fmt.Fprintf(out, "(Tip: use the %s-v%s option to display every digit)\n", ui.ColorYellow(), ui.ColorReset())
	}
}
