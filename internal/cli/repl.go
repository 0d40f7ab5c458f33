package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/digits"
	"github.com/agbru/picalc/internal/ui"
)

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// DefaultAlgo is the calculator selected at startup.
	DefaultAlgo string
	// Timeout is the maximum duration for each calculation.
	Timeout time.Duration
	// Workers is the worker count passed to the calculators (0 = NumCPU).
	Workers int
	// Schedule and Chunk select the work-partitioning policy.
	Schedule string
	Chunk    int
	// Format groups displayed digits in blocks of 10.
	Format bool
}

// REPL represents an interactive pi calculator session.
type REPL struct {
	config      REPLConfig
	factory     chudnovsky.CalculatorFactory
	names       []string
	currentAlgo string
	in          io.Reader
	out         io.Writer
}

// NewREPL creates a new REPL over the calculators of factory. An empty or
// "all" default selects the first registered calculator.
func NewREPL(factory chudnovsky.CalculatorFactory, config REPLConfig) *REPL {
	names := factory.List()
	currentAlgo := config.DefaultAlgo
	if (currentAlgo == "" || currentAlgo == "all" || !slices.Contains(names, currentAlgo)) && len(names) > 0 {
		currentAlgo = names[0]
	}
	if config.Schedule == "" {
		config.Schedule = chudnovsky.ScheduleDynamic
	}
	return &REPL{
		config:      config,
		factory:     factory,
		names:       names,
		currentAlgo: currentAlgo,
		in:          os.Stdin,
		out:         os.Stdout,
	}
}

// SetInput sets a custom input reader.
func (r *REPL) SetInput(in io.Reader) { r.in = in }

// SetOutput sets a custom output writer.
func (r *REPL) SetOutput(out io.Writer) { r.out = out }

// Start reads and executes commands until "exit" or end of input.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	for {
		fmt.Fprint(r.out, ui.ColorGreen()+"pi> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			return
		}
		line := strings.TrimSpace(input)
		if line != "" && !r.processCommand(line) {
			return
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s== Pi Calculator - Interactive Mode ==%s\n\n", ui.ColorBold(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	cmd := func(name, desc string) {
		fmt.Fprintf(r.out, "  %s%-22s%s %s\n", ui.ColorYellow(), name, ui.ColorReset(), desc)
	}
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	cmd("calc <digits>", "Compute pi with the current calculator")
	cmd("algo <name>", "Change calculator ("+strings.Join(r.names, ", ")+")")
	cmd("schedule <name> [chunk]", "Change schedule ("+strings.Join(chudnovsky.ScheduleNames, ", ")+")")
	cmd("threads <n>", "Change the worker count (0 = all CPUs)")
	cmd("compare <digits>", "Run every calculator and compare the digits")
	cmd("list", "List available calculators")
	cmd("format", "Toggle grouped digit display")
	cmd("status", "Display current configuration")
	cmd("help", "Display this help")
	cmd("exit / quit", "Exit interactive mode")
}

// processCommand executes one command line. It returns false on exit.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "calc", "c":
		if d, ok := r.parseDigits("calc", args); ok {
			r.calculate(d)
		}
	case "algo", "a":
		r.cmdAlgo(args)
	case "schedule", "s":
		r.cmdSchedule(args)
	case "threads", "t":
		r.cmdThreads(args)
	case "compare", "cmp":
		if d, ok := r.parseDigits("compare", args); ok {
			r.compare(d)
		}
	case "list", "ls":
		r.cmdList()
	case "format", "f":
		r.config.Format = !r.config.Format
		fmt.Fprintf(r.out, "Grouped display: %s%s%s\n", ui.ColorGreen(), onOff(r.config.Format), ui.ColorReset())
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		if d, err := strconv.ParseUint(cmd, 10, 64); err == nil {
			r.calculate(d)
			return true
		}
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
	}
	return true
}

func (r *REPL) parseDigits(cmd string, args []string) (uint64, bool) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: %s <digits>%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		return 0, false
	}
	d, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || d > chudnovsky.MaxDigits {
		fmt.Fprintf(r.out, "%sInvalid digit count: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return 0, false
	}
	return d, true
}

func (r *REPL) options() chudnovsky.Options {
	return chudnovsky.Options{Workers: r.config.Workers, Schedule: r.config.Schedule, ChunkSize: r.config.Chunk}
}

// run executes calc with a per-command timeout, optionally rendering progress.
func (r *REPL) run(calc chudnovsky.Calculator, d uint64, showProgress bool) (*chudnovsky.Result, time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	progressChan := make(chan chudnovsky.ProgressUpdate, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	if showProgress {
		go DisplayProgress(&wg, progressChan, 1, r.out)
	} else {
		go func() {
			defer wg.Done()
			for range progressChan {
			}
		}()
	}

	start := time.Now()
	res, err := calc.Calculate(ctx, progressChan, 0, d, r.options())
	duration := time.Since(start)
	close(progressChan)
	wg.Wait()
	return res, duration, err
}

func (r *REPL) calculate(d uint64) {
	calc, err := r.factory.Get(r.currentAlgo)
	if err != nil {
		fmt.Fprintf(r.out, "%sCalculator not found: %s%s\n", ui.ColorRed(), r.currentAlgo, ui.ColorReset())
		return
	}
	fmt.Fprintf(r.out, "Calculating pi to %s%d%s digits with %s%s%s...\n",
		ui.ColorMagenta(), d, ui.ColorReset(), ui.ColorCyan(), calc.Name(), ui.ColorReset())

	res, duration, err := r.run(calc, d, true)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	expanded, err := digits.Expand(res.Pi, d)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}

	fmt.Fprintf(r.out, "\n%sResult:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Time:      %s%s%s\n", ui.ColorGreen(), FormatExecutionDuration(duration), ui.ColorReset())
	fmt.Fprintf(r.out, "  Precision: %s%d%s bits, %s%d%s terms\n",
		ui.ColorCyan(), res.Plan.Precision, ui.ColorReset(), ui.ColorCyan(), res.Terms, ui.ColorReset())
	fmt.Fprintf(r.out, "  pi = %s%s%s\n\n", ui.ColorGreen(), r.render(expanded), ui.ColorReset())
}

// render returns the REPL form of d: a preview past PreviewDigits, grouped
// in blocks of 10 when formatting is on.
func (r *REPL) render(d digits.Digits) string {
	frac := d.Fractional()
	if frac == "" {
		return "3"
	}
	suffix := ""
	if len(frac) > PreviewDigits {
		suffix = fmt.Sprintf("... (%d digits)", len(frac))
		frac = frac[:PreviewDigits]
	}
	if r.config.Format {
		var groups []string
		for len(frac) > 10 {
			groups = append(groups, frac[:10])
			frac = frac[10:]
		}
		frac = strings.Join(append(groups, frac), " ")
	}
	return "3." + frac + suffix
}

func (r *REPL) compare(d uint64) {
	fmt.Fprintf(r.out, "\n%sComparison for %d digits:%s\n", ui.ColorBold(), d, ui.ColorReset())
	fmt.Fprintf(r.out, "%s%s%s\n", ui.ColorCyan(), strings.Repeat("-", 45), ui.ColorReset())

	var reference string
	for _, name := range r.names {
		calc, err := r.factory.Get(name)
		if err != nil {
			continue
		}
		res, duration, err := r.run(calc, d, false)
		var frac string
		if err == nil {
			var expanded digits.Digits
			expanded, err = digits.Expand(res.Pi, d)
			frac = expanded.Fractional()
		}
		if err != nil {
			fmt.Fprintf(r.out, "  %s%-10s%s: %sError - %v%s\n",
				ui.ColorYellow(), name, ui.ColorReset(), ui.ColorRed(), err, ui.ColorReset())
			continue
		}

		status := ui.ColorGreen() + "OK" + ui.ColorReset()
		if reference == "" {
			reference = frac
		} else if frac != reference {
			status = ui.ColorRed() + "MISMATCH" + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "  %s%-10s%s: %s%12s%s %s\n",
			ui.ColorYellow(), name, ui.ColorReset(), ui.ColorCyan(), FormatExecutionDuration(duration), ui.ColorReset(), status)
	}
	fmt.Fprintf(r.out, "%s%s%s\n\n", ui.ColorCyan(), strings.Repeat("-", 45), ui.ColorReset())
}

func (r *REPL) cmdAlgo(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: algo <name>%s\n", ui.ColorRed(), ui.ColorReset())
		fmt.Fprintf(r.out, "Available calculators: %s\n", strings.Join(r.names, ", "))
		return
	}
	name := strings.ToLower(args[0])
	if !slices.Contains(r.names, name) {
		fmt.Fprintf(r.out, "%sUnknown calculator: %s%s\n", ui.ColorRed(), name, ui.ColorReset())
		fmt.Fprintf(r.out, "Available calculators: %s\n", strings.Join(r.names, ", "))
		return
	}
	r.currentAlgo = name
	fmt.Fprintf(r.out, "Calculator changed to: %s%s%s\n", ui.ColorGreen(), name, ui.ColorReset())
}

func (r *REPL) cmdSchedule(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: schedule <name> [chunk]%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	chunk := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(r.out, "%sInvalid chunk size: %s%s\n", ui.ColorRed(), args[1], ui.ColorReset())
			return
		}
		chunk = n
	}
	s, err := chudnovsky.ParseSchedule(strings.ToLower(args[0]), chunk)
	if err != nil {
		fmt.Fprintf(r.out, "%s%v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	r.config.Schedule, r.config.Chunk = s.Name(), chunk
	fmt.Fprintf(r.out, "Schedule changed to: %s%s%s (chunk %d)\n", ui.ColorGreen(), s.Name(), ui.ColorReset(), s.ChunkSize())
}

func (r *REPL) cmdThreads(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: threads <n>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		fmt.Fprintf(r.out, "%sInvalid thread count: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	r.config.Workers = n
	fmt.Fprintf(r.out, "Threads changed to: %s%d%s\n", ui.ColorGreen(), n, ui.ColorReset())
}

func (r *REPL) cmdList() {
	fmt.Fprintf(r.out, "\n%sAvailable calculators:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, name := range r.names {
		marker := "  "
		if name == r.currentAlgo {
			marker = ui.ColorGreen() + "> " + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "%s%s%s%s\n", marker, ui.ColorYellow(), name, ui.ColorReset())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdStatus() {
	workers := "all CPUs"
	if r.config.Workers > 0 {
		workers = strconv.Itoa(r.config.Workers)
	}
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Calculator: %s%s%s\n", ui.ColorCyan(), r.currentAlgo, ui.ColorReset())
	fmt.Fprintf(r.out, "  Schedule:   %s%s%s (chunk %d)\n", ui.ColorCyan(), r.config.Schedule, ui.ColorReset(), r.config.Chunk)
	fmt.Fprintf(r.out, "  Threads:    %s%s%s\n", ui.ColorCyan(), workers, ui.ColorReset())
	fmt.Fprintf(r.out, "  Timeout:    %s%s%s\n", ui.ColorCyan(), r.config.Timeout, ui.ColorReset())
	fmt.Fprintf(r.out, "  Grouped:    %s%s%s\n", ui.ColorCyan(), onOff(r.config.Format), ui.ColorReset())
	fmt.Fprintln(r.out)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
