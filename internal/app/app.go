package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/agbru/picalc/internal/calibration"
	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/server"
	"github.com/agbru/picalc/internal/ui"
)

// Application is one picalc invocation: a parsed configuration and the
// calculators it can run.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides the calculator implementations.
	Factory chudnovsky.CalculatorFactory
	// ErrWriter receives diagnostics and log output (typically os.Stderr).
	ErrWriter io.Writer
	// In feeds the REPL; os.Stdin when nil.
	In io.Reader
}

// New parses args (program name first) into an Application using the
// global calculator factory. A valid calibration profile replaces the
// default schedule; without one a hardware estimate is used.
//
// Returns:
//   - *Application: A new application instance.
//   - error: The flag parsing or validation error. flag.ErrHelp when help
//     was requested.
func New(args []string, errWriter io.Writer) (*Application, error) {
	return NewWithFactory(args, errWriter, chudnovsky.GlobalFactory())
}

// NewWithFactory is New with an explicit calculator factory.
func NewWithFactory(args []string, errWriter io.Writer, factory chudnovsky.CalculatorFactory) (*Application, error) {
	programName := "picalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}

	if withProfile, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
		cfg = withProfile
	} else {
		cfg = calibration.ApplyEstimate(cfg)
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
	}, nil
}

// Run executes the configured mode: version, completion, server, REPL,
// calibration or a calculation.
//
// Parameters:
//   - ctx: The context for managing cancellation.
//   - out: The writer for standard output.
//
// Returns:
//   - int: The process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	noColor := ui.InitTheme(a.Config.NoColor)
	if err := logging.Configure(a.Config.LogLevel, a.ErrWriter, noColor); err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	switch {
	case a.Config.ServerMode:
		return a.runServer(ctx)
	case a.Config.Interactive:
		return a.runREPL(out)
	case a.Config.Calibrate:
		return a.runCalibration(ctx, out)
	}
	return a.runCalculate(ctx, out)
}

func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) runServer(ctx context.Context) int {
	ctx, stop := SetupSignals(ctx)
	defer stop()

	srv, err := server.NewServer(a.Factory, a.Config,
		server.WithLogger(logging.NewLogger(a.ErrWriter, "server")))
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func (a *Application) runREPL(out io.Writer) int {
	repl := cli.NewREPL(a.Factory, cli.REPLConfig{
		DefaultAlgo: a.Config.Algo,
		Timeout:     a.Config.Timeout,
		Workers:     a.Config.Threads,
		Schedule:    a.Config.Schedule,
		Chunk:       a.Config.Chunk,
		Format:      a.Config.Format,
	})
	repl.SetOutput(out)
	if a.In != nil {
		repl.SetInput(a.In)
	}
	repl.Start()
	return apperrors.ExitSuccess
}

func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, lc := SetupLifecycle(ctx, a.Config.Timeout)
	defer lc.Cleanup()
	return calibration.RunCalibrationWithOptions(ctx, out, a.Factory.GetAll(), calibration.CalibrationOptions{
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
		Workers:     a.Config.Threads,
	})
}

// runCalculate computes pi with the selected calculators under the
// configured timeout, then reports in JSON or through the comparison
// analysis.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	ctx, lc := SetupLifecycle(ctx, a.Config.Timeout)
	defer lc.Cleanup()

	calculators := cli.GetCalculatorsToRun(a.Config, a.Factory)
	if len(calculators) == 0 {
		fmt.Fprintf(a.ErrWriter, "No calculator available for '%s'\n", a.Config.Algo)
		return apperrors.ExitErrorConfig
	}

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(calculators, out)
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}
	results := orchestration.ExecuteCalculations(ctx, calculators, a.Config, progressOut)

	if a.Config.JSONOutput {
		return printJSONResults(results, a.Config.Digits, out)
	}
	return orchestration.AnalyzeComparisonResults(results, a.Config, out)
}

// IsHelpError reports whether err means -h or --help was given.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// ExitCodeFor maps an error returned by New to an exit code: success for
// a help request, the configuration code otherwise.
func ExitCodeFor(err error) int {
	if err == nil || IsHelpError(err) {
		return apperrors.ExitSuccess
	}
	return apperrors.ExitErrorConfig
}

// jsonResult is one calculator's entry in the JSON report.
type jsonResult struct {
	Algorithm string `json:"algorithm"`
	Duration  string `json:"duration"`
	Digits    uint64 `json:"digits"`
	Pi        string `json:"pi,omitempty"`
	Error     string `json:"error,omitempty"`
}

// printJSONResults writes one entry per calculator as an indented JSON
// array. The exit code follows the comparison rules: failures are tolerated
// while one calculator succeeds, disagreeing digits are a mismatch.
func printJSONResults(results []orchestration.CalculationResult, count uint64, out io.Writer) int {
	output := make([]jsonResult, len(results))
	var firstErr error
	reference := ""
	succeeded, mismatch := false, false
	for i, res := range results {
		jr := jsonResult{
			Algorithm: res.Name,
			Duration:  res.Duration.String(),
			Digits:    count,
		}
		err := res.Err
		if err == nil {
			var d digits.Digits
			if d, err = digits.Expand(res.Result.Pi, count); err == nil {
				jr.Pi = cli.FormatQuietResult(d)
			}
		}
		switch {
		case err != nil:
			jr.Error = err.Error()
			if firstErr == nil {
				firstErr = err
			}
		case !succeeded:
			succeeded, reference = true, jr.Pi
		case jr.Pi != reference:
			mismatch = true
		}
		output[i] = jr
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return apperrors.ExitErrorGeneric
	}
	switch {
	case mismatch:
		return apperrors.ExitErrorMismatch
	case !succeeded:
		return apperrors.ExitCode(firstErr)
	}
	return apperrors.ExitSuccess
}
