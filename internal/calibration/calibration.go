package calibration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/cli"
	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/ui"
)

// CalibratedAlgo is the calculator whose schedule is calibrated. The
// binary splitting calculator does not use a schedule.
const CalibratedAlgo = "series"

// CalibrationOptions configures the calibration process.
type CalibrationOptions struct {
	// ProfilePath is where the profile is loaded from and saved to. Empty
	// means the default path.
	ProfilePath string
	// SaveProfile writes the fastest configuration to ProfilePath.
	SaveProfile bool
	// LoadProfile reuses a valid existing profile instead of measuring.
	LoadProfile bool
	// Workers is the worker count of every trial, 0 for runtime.NumCPU().
	Workers int
	// TrialTimeout bounds each trial.
	TrialTimeout time.Duration
}

// RunCalibration measures every schedule candidate with a fresh profile
// saved to the default path.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - out: The io.Writer to which progress and results will be written.
//   - calculatorRegistry: The available calculators, which must include
//     "series".
//
// Returns:
//   - int: The exit code.
func RunCalibration(ctx context.Context, out io.Writer, calculatorRegistry map[string]chudnovsky.Calculator) int {
	return RunCalibrationWithOptions(ctx, out, calculatorRegistry, CalibrationOptions{SaveProfile: true})
}

// RunCalibrationWithOptions runs the calibration with opts. Each candidate
// of GenerateCandidates computes CalibrationDigits digits; the fastest is
// printed as a flag recommendation and optionally saved.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, calculatorRegistry map[string]chudnovsky.Calculator, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Fastest Work Schedule ---\n")

	profilePath := opts.ProfilePath
	if profilePath == "" {
		profilePath = GetDefaultProfilePath()
	}

	if opts.LoadProfile {
		if profile, loaded := LoadOrCreateProfile(opts.ProfilePath); loaded {
			fmt.Fprintf(out, "%sLoaded existing calibration profile from %s%s\n", ui.ColorGreen(), profilePath, ui.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile)
			printRecommendation(out, Candidate{Schedule: profile.Schedule, Chunk: profile.Chunk})
			return apperrors.ExitSuccess
		}
	}

	calc := calculatorRegistry[CalibratedAlgo]
	if calc == nil {
		fmt.Fprintf(out, "%sCritical error: the '%s' algorithm is required for calibration but was not found.%s\n",
			ui.ColorRed(), CalibratedAlgo, ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	candidates := GenerateCandidates()
	fmt.Fprintf(out, "%sMeasuring %d configurations at %d digits with %d workers%s\n",
		ui.ColorCyan(), len(candidates), CalibrationDigits, workers, ui.ColorReset())

	runner := newCalibrationRunner(calc, workers, opts.TrialTimeout)
	results := make([]calibrationResult, 0, len(candidates))
	start := time.Now()

	var wg sync.WaitGroup
	progressChan := make(chan chudnovsky.ProgressUpdate, 5)
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, 1, out)
	stopProgress := func() {
		close(progressChan)
		wg.Wait()
	}

	for _, c := range candidates {
		if ctx.Err() != nil {
			stopProgress()
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
			return apperrors.ExitErrorCanceled
		}
		res := runner.runTrial(ctx, c, progressChan)
		results = append(results, res)
		if res.Err != nil && ctx.Err() != nil &&
			(errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded)) {
			stopProgress()
			return apperrors.HandleCalculationError(res.Err, res.Duration, out, cli.CLIColorProvider{})
		}
	}
	stopProgress()

	bestIdx := best(results)
	if bestIdx < 0 {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", ui.ColorRed(), ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, bestIdx)
	winner := results[bestIdx].Candidate
	printRecommendation(out, winner)

	if opts.SaveProfile {
		profile := NewProfile()
		profile.Schedule = winner.Schedule
		profile.Chunk = winner.Chunk
		profile.Workers = workers
		profile.CalibrationDigits = CalibrationDigits
		profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()
		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n", ui.ColorGreen(), profilePath, ui.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

// LoadCachedCalibration applies the schedule of a valid profile at
// profilePath to cfg. A schedule or chunk chosen on the command line is
// kept: the profile only replaces the defaults.
//
// Returns:
//   - config.AppConfig: The possibly updated configuration.
//   - bool: True if a valid profile was found.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (updated config.AppConfig, ok bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return cfg, false
	}
	if _, err := chudnovsky.ParseSchedule(profile.Schedule, profile.Chunk); err != nil {
		return cfg, false
	}

	updated = cfg
	if cfg.Schedule == chudnovsky.ScheduleDynamic && cfg.Chunk == 0 {
		updated.Schedule = profile.Schedule
		updated.Chunk = profile.Chunk
	}
	return updated, true
}

// ApplyEstimate replaces a default schedule with EstimateCandidate.
func ApplyEstimate(cfg config.AppConfig) config.AppConfig {
	if cfg.Schedule == chudnovsky.ScheduleDynamic && cfg.Chunk == 0 {
		c := EstimateCandidate()
		cfg.Schedule, cfg.Chunk = c.Schedule, c.Chunk
	}
	return cfg
}
