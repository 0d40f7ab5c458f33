// Package config provides the configuration management for the picalc application.
// It defines the data structure for the configuration, handles the parsing of
// command-line arguments, and performs validation on the configuration values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/digits"
	apperrors "github.com/agbru/picalc/internal/errors"
)

const (
	// EnvPrefix is the prefix for all environment variables used by picalc.
	// Environment variables provide an alternative to CLI flags for configuration.
	EnvPrefix = "PICALC_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultDigits is the default number of fractional digits to compute.
	DefaultDigits uint64 = 1000
	// DefaultOutputFile is the file the digits are written to.
	DefaultOutputFile = "pi.txt"
	// DefaultTimeout is the default calculation timeout.
	DefaultTimeout = 30 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultAlgo is the default calculator selection.
	DefaultAlgo = "series"
	// DefaultLogLevel is the default zerolog level.
	DefaultLogLevel = "info"
)

// AppConfig aggregates the application's configuration parameters, parsed from
// command-line flags and PICALC_ environment variables.
type AppConfig struct {
	// Digits is the number of fractional digits of pi to compute.
	Digits uint64
	// OutputFile is the destination of the digit report.
	OutputFile string
	// Threads is the number of workers summing the series.
	Threads int
	// Schedule names the work distribution policy (static, dynamic, guided).
	Schedule string
	// Chunk is the chunk size of the schedule, 0 for the policy default.
	Chunk int
	// Format groups digits in blocks of 10 and lines of 100.
	Format bool
	// NoOutput computes pi without writing the output file.
	NoOutput bool
	// BufferSize is the size in bytes of the digit writer's buffer.
	BufferSize int
	// Algo specifies the calculator to use ("all", "series", "split", ...).
	Algo string
	// Timeout sets the maximum duration for the calculation.
	Timeout time.Duration
	// Quiet mode - minimal output for scripting purposes.
	Quiet bool
	// JSONOutput, if true, outputs the result in JSON format.
	JSONOutput bool
	// Verbose, if true, prints every computed digit to stdout.
	Verbose bool
	// Details, if true, displays plan and cache statistics.
	Details bool
	// LogLevel is the global zerolog level.
	LogLevel string
	// ServerMode, if true, starts the application as an HTTP server.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// Interactive, if true, starts the application in REPL mode.
	Interactive bool
	// Calibrate, if true, benchmarks every schedule and saves the fastest.
	Calibrate bool
	// CalibrationProfile is the path to a calibration profile file.
	// If empty, uses the default path (~/.picalc_calibration.json).
	CalibrationProfile string
	// Completion, if set, generates shell completion script for the specified shell.
	// Valid values are: "bash", "zsh", "fish", "powershell".
	Completion string
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// ShowVersion prints the version and exits.
	ShowVersion bool
}

// ToCalculationOptions converts the application configuration into
// chudnovsky.Options for use by the calculators.
func (c AppConfig) ToCalculationOptions() chudnovsky.Options {
	return chudnovsky.Options{
		Workers:   c.Threads,
		Schedule:  c.Schedule,
		ChunkSize: c.Chunk,
	}
}

// Validate checks the semantic consistency of the configuration parameters.
// It ensures that numerical values are within valid ranges and that the chosen
// calculator and schedule are supported.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(availableAlgos []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Threads < 1 {
		return apperrors.NewConfigError("thread count must be at least 1, got %d", c.Threads)
	}
	if c.BufferSize < digits.MinBufferSize {
		return apperrors.NewConfigError("buffer size must be at least %d bytes, got %d", digits.MinBufferSize, c.BufferSize)
	}
	if c.Digits > chudnovsky.MaxDigits {
		return apperrors.NewConfigError("digit count %d exceeds the maximum of %d", c.Digits, chudnovsky.MaxDigits)
	}
	if _, err := chudnovsky.ParseSchedule(c.Schedule, c.Chunk); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}
	if c.Algo != "all" && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: 'all' or [%s]", c.Algo, strings.Join(availableAlgos, ", "))
	}
	return nil
}

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. It defines all the command-line flags, sets their default values, and
// handles the parsing process. After parsing, it performs validation on the
// resulting configuration.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//   - availableAlgos: A slice of valid calculator names for validation.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing fails or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	algoHelp := fmt.Sprintf("Calculator to use: 'all' or one of [%s].", strings.Join(availableAlgos, ", "))
	scheduleHelp := fmt.Sprintf("Work distribution policy: one of [%s].", strings.Join(chudnovsky.ScheduleNames, ", "))

	config := AppConfig{}
	fs.Uint64Var(&config.Digits, "digits", DefaultDigits, "Number of fractional digits of pi to compute.")
	fs.Uint64Var(&config.Digits, "d", DefaultDigits, "Number of digits (shorthand).")
	fs.StringVar(&config.OutputFile, "output", DefaultOutputFile, "Output file path for the digits.")
	fs.StringVar(&config.OutputFile, "o", DefaultOutputFile, "Output file path (shorthand).")
	fs.IntVar(&config.Threads, "threads", runtime.NumCPU(), "Number of worker goroutines summing the series.")
	fs.IntVar(&config.Threads, "t", runtime.NumCPU(), "Number of workers (shorthand).")
	fs.StringVar(&config.Schedule, "schedule", chudnovsky.ScheduleDynamic, scheduleHelp)
	fs.IntVar(&config.Chunk, "chunk", 0, "Chunk size of the schedule (0 for the policy default).")
	fs.BoolVar(&config.Format, "format", false, "Group digits in blocks of 10, 100 per line.")
	fs.BoolVar(&config.Format, "f", false, "Group digits (shorthand).")
	fs.BoolVar(&config.NoOutput, "no-output", false, "Compute without writing the output file.")
	fs.BoolVar(&config.NoOutput, "c", false, "Compute only (shorthand).")
	fs.IntVar(&config.BufferSize, "buffer", digits.DefaultBufferSize, fmt.Sprintf("Output buffer size in bytes (minimum %d).", digits.MinBufferSize))
	fs.IntVar(&config.BufferSize, "b", digits.DefaultBufferSize, "Output buffer size (shorthand).")
	fs.StringVar(&config.Algo, "algo", DefaultAlgo, algoHelp)
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the calculation.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Verbose, "v", false, "Print every computed digit to stdout.")
	fs.BoolVar(&config.Details, "details", false, "Display precision plan and cache statistics.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level (trace, debug, info, warn, error, disabled).")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start in interactive REPL mode.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Benchmark every schedule and save the fastest to the calibration profile.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to calibration profile file (default: ~/.picalc_calibration.json).")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish, powershell).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version information and exit.")
	fs.BoolVar(&config.ShowVersion, "V", false, "Print version (shorthand).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	config.Algo = strings.ToLower(config.Algo)
	config.Schedule = strings.ToLower(config.Schedule)
	config.LogLevel = strings.ToLower(config.LogLevel)
	if err := config.Validate(availableAlgos); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.Join(errors.New("invalid configuration"), err)
	}
	return config, nil
}
