package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/ui"
)

// GetCalculatorsToRun determines which calculators should be executed based on
// the configuration, in alphabetical order when "all" is selected.
//
// Parameters:
//   - cfg: The application configuration containing the calculator selection.
//   - factory: The calculator factory to retrieve implementations from.
//
// Returns:
//   - []chudnovsky.Calculator: The calculators to execute (nil if none match).
func GetCalculatorsToRun(cfg config.AppConfig, factory chudnovsky.CalculatorFactory) []chudnovsky.Calculator {
	if cfg.Algo != "all" {
		if calc, err := factory.Get(cfg.Algo); err == nil {
			return []chudnovsky.Calculator{calc}
		}
		return nil
	}
	names := factory.List()
	calculators := make([]chudnovsky.Calculator, 0, len(names))
	for _, name := range names {
		if calc, err := factory.Get(name); err == nil {
			calculators = append(calculators, calc)
		}
	}
	return calculators
}

// PrintExecutionConfig announces the run the way the command has always
// done ("Calculating pi to D digits using W threads...") followed by the
// schedule, timeout and environment.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "Calculating pi to %s%d%s digits using %s%d%s threads...\n",
		ui.ColorMagenta(), cfg.Digits, ui.ColorReset(), ui.ColorCyan(), cfg.Threads, ui.ColorReset())
	chunk := "default"
	if cfg.Chunk > 0 {
		chunk = fmt.Sprint(cfg.Chunk)
	}
	fmt.Fprintf(out, "Schedule: %s%s%s (chunk %s), timeout %s%s%s.\n",
		ui.ColorCyan(), cfg.Schedule, ui.ColorReset(), chunk, ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
}

// PrintExecutionMode displays whether one calculator runs or several are
// compared.
func PrintExecutionMode(calculators []chudnovsky.Calculator, out io.Writer) {
	if len(calculators) > 1 {
		fmt.Fprintf(out, "Execution mode: Parallel comparison of %d calculators.\n", len(calculators))
	} else if len(calculators) == 1 {
		fmt.Fprintf(out, "Execution mode: Single calculation with %s%s%s.\n",
			ui.ColorGreen(), calculators[0].Name(), ui.ColorReset())
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
