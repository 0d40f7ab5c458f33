package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/ui"
)

// printCalibrationResults prints one row per trial, marking the fastest.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestIdx int) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sSchedule%s\t│ %sExecution Time%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s\t┼%s\n", strings.Repeat("─", 24), strings.Repeat("─", 25))
	for i, res := range results {
		duration := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			duration = cli.FormatExecutionDuration(res.Duration)
		}
		highlight := ""
		if i == bestIdx {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%s%s\t│ %s%s%s%s\n",
			ui.ColorCyan(), res.Candidate, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(), highlight)
	}
	tw.Flush()
}

// printRecommendation prints the flags reproducing the fastest candidate.
func printRecommendation(out io.Writer, c Candidate) {
	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s--schedule %s --chunk %d%s\n",
		ui.ColorGreen(), ui.ColorYellow(), c.Schedule, c.Chunk, ui.ColorReset())
}
