// Package orchestration runs one or more pi calculators concurrently and
// reconciles their results.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/ui"
)

// CalculationResult is the outcome of one calculator run.
type CalculationResult struct {
	// Name is the display name of the calculator.
	Name string
	// Result is nil if an error occurred.
	Result *chudnovsky.Result
	// Duration is the wall-clock time of the run.
	Duration time.Duration
	// Err contains any error that occurred during the calculation.
	Err error
}

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel, so calculators rarely block on a slow display.
const ProgressBufferMultiplier = 5

// ExecuteCalculations runs every calculator concurrently on cfg.Digits and
// collects their results in input order. Progress is rendered to out until
// the last calculator returns.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - calculators: The calculators to execute.
//   - cfg: The application configuration (digits, workers, schedule).
//   - out: The io.Writer for displaying progress updates.
//
// Returns:
//   - []CalculationResult: One result per calculator.
func ExecuteCalculations(ctx context.Context, calculators []chudnovsky.Calculator, cfg config.AppConfig, out io.Writer) []CalculationResult {
	var g errgroup.Group
	results := make([]CalculationResult, len(calculators))
	progressChan := make(chan chudnovsky.ProgressUpdate, len(calculators)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(calculators), out)

	opts := cfg.ToCalculationOptions()
	for i, calc := range calculators {
		g.Go(func() error {
			start := time.Now()
			res, err := calc.Calculate(ctx, progressChan, i, cfg.Digits, opts)
			results[i] = CalculationResult{Name: calc.Name(), Result: res, Duration: time.Since(start), Err: err}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// AnalyzeComparisonResults reconciles the results of a run and reports the
// outcome. Successful results are expanded to cfg.Digits digits and must
// agree digit for digit; the fastest one is then displayed and written
// according to cfg. With more than one calculator a summary table is printed
// first.
//
// Parameters:
//   - results: The results of ExecuteCalculations.
//   - cfg: The application configuration.
//   - out: The io.Writer for the report.
//
// Returns:
//   - int: ExitSuccess, ExitErrorMismatch when digits disagree, or the code
//     of the first failure when nothing succeeded or the output failed.
func AnalyzeComparisonResults(results []CalculationResult, cfg config.AppConfig, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	// Expansion failures count as calculator failures.
	expanded := make([]string, len(results))
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		d, err := digits.Expand(results[i].Result.Pi, cfg.Digits)
		if err != nil {
			results[i].Err = err
			continue
		}
		expanded[i] = d.Fractional()
	}

	report := out
	if cfg.Quiet {
		report = io.Discard
	}
	if len(results) > 1 {
		printSummary(results, report)
	}

	best := -1
	var firstError error
	for i, res := range results {
		if res.Err != nil {
			if firstError == nil {
				firstError = res.Err
			}
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		if expanded[i] != expanded[best] {
			fmt.Fprintf(report, "\nGlobal Status: CRITICAL ERROR! %s and %s disagree on the first %d digits.\n",
				results[best].Name, res.Name, cfg.Digits)
			return apperrors.ExitErrorMismatch
		}
	}

	if best < 0 {
		if len(results) > 1 {
			fmt.Fprintf(report, "\nGlobal Status: Failure. No calculator could complete the calculation.\n")
		}
		return apperrors.HandleCalculationError(firstError, 0, out, cli.CLIColorProvider{})
	}
	if len(results) > 1 {
		fmt.Fprintf(report, "\nGlobal Status: Success. All valid results are consistent.\n")
	}

	winner := results[best]
	if err := cli.DisplayResultWithConfig(out, winner.Result, cfg.Digits, winner.Duration, cli.NewOutputConfig(cfg)); err != nil {
		return apperrors.HandleCalculationError(err, 0, out, cli.CLIColorProvider{})
	}
	return apperrors.ExitSuccess
}

func printSummary(results []CalculationResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sCalculator%s\t%sDuration%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	for _, res := range results {
		status := fmt.Sprintf("%sSuccess%s", ui.ColorGreen(), ui.ColorReset())
		if res.Err != nil {
			status = fmt.Sprintf("%sFailure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), cli.FormatExecutionDuration(res.Duration), ui.ColorReset(),
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}
