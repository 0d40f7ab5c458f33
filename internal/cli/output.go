package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the destination of the digit report.
	OutputFile string
	// NoOutput skips the digit report entirely.
	NoOutput bool
	// Format groups digits in blocks of 10, 100 per line.
	Format bool
	// BufferSize is the digit writer's buffer capacity in bytes.
	BufferSize int
	// Quiet mode prints only the digits.
	Quiet bool
	// Verbose prints every digit to the console.
	Verbose bool
	// Details prints plan and cache statistics.
	Details bool
}

// NewOutputConfig extracts the output settings of cfg.
func NewOutputConfig(cfg config.AppConfig) OutputConfig {
	return OutputConfig{
		OutputFile: cfg.OutputFile,
		NoOutput:   cfg.NoOutput,
		Format:     cfg.Format,
		BufferSize: cfg.BufferSize,
		Quiet:      cfg.Quiet,
		Verbose:    cfg.Verbose,
		Details:    cfg.Details,
	}
}

// WriteResultToFile writes the digit report for d to cfg.OutputFile. The
// report goes to a temporary file in the destination directory which is
// renamed into place once complete, so a failed write never leaves a
// truncated file behind. When progressOut is non-nil a byte progress bar is
// rendered to it.
//
// Parameters:
//   - d: The expanded digits.
//   - elapsed: The computation time printed in the header.
//   - cfg: Output configuration (file, layout, buffer size).
//   - progressOut: Where to draw the progress bar, or nil.
//
// Returns:
//   - digits.Stats: Bytes written (header included) and buffer flushes.
//   - error: A ConfigError for an invalid buffer size, a ResourceError if
//     the file cannot be created, written or renamed.
func WriteResultToFile(d digits.Digits, elapsed time.Duration, cfg OutputConfig, progressOut io.Writer) (digits.Stats, error) {
	w, err := digits.NewWriter(cfg.BufferSize, cfg.Format)
	if err != nil {
		return digits.Stats{}, err
	}

	path := cfg.OutputFile
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return digits.Stats{}, apperrors.NewResourceError("mkdir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return digits.Stats{}, apperrors.NewResourceError("create", path, err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	var sink io.Writer = tmp
	var bar *progressbar.ProgressBar
	if progressOut != nil {
		total := int64(len(digits.Header(d.Count, elapsed))) + digits.EncodedLen(d.Count, cfg.Format)
		bar = newByteBar(progressOut, total, path)
		sink = io.MultiWriter(tmp, bar)
	}

	stats, err := w.WriteReport(sink, d, elapsed)
	if err != nil {
		return stats, err
	}

	if err := tmp.Chmod(0o644); err != nil {
		return stats, apperrors.NewResourceError("chmod", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return stats, apperrors.NewResourceError("close", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return stats, apperrors.NewResourceError("rename", path, err)
	}
	committed = true
	if bar != nil {
		_ = bar.Finish()
	}
	return stats, nil
}

func newByteBar(out io.Writer, total int64, path string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Writing "+filepath.Base(path)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(ProgressBarWidth),
		progressbar.OptionThrottle(ProgressRefreshRate),
		progressbar.OptionClearOnFinish(),
	)
}

// FormatQuietResult returns the digits as a single "3.14159..." line body.
func FormatQuietResult(d digits.Digits) string {
	if d.Count == 0 {
		return "3"
	}
	return "3." + d.Fractional()
}

// DisplayQuietResult prints the digits on one line, for scripting.
func DisplayQuietResult(out io.Writer, d digits.Digits) {
	fmt.Fprintln(out, FormatQuietResult(d))
}

// DisplayResultWithConfig expands the result, prints it according to cfg and
// writes the digit report unless disabled. The expansion happens first, so
// a numeric inconsistency aborts before anything is printed or written.
//
// Parameters:
//   - out: The console writer.
//   - res: The calculation result.
//   - count: The number of fractional digits D.
//   - duration: The calculation time.
//   - cfg: Output configuration.
//
// Returns:
//   - error: A NumericError, ConfigError or ResourceError.
func DisplayResultWithConfig(out io.Writer, res *chudnovsky.Result, count uint64, duration time.Duration, cfg OutputConfig) error {
	d, err := digits.Expand(res.Pi, count)
	if err != nil {
		return err
	}

	if cfg.Quiet {
		DisplayQuietResult(out, d)
	} else {
		DisplayResult(res, d, duration, cfg.Verbose, cfg.Details, out)
	}

	if cfg.NoOutput || cfg.OutputFile == "" {
		return nil
	}
	var progressOut io.Writer
	if !cfg.Quiet {
		progressOut = out
	}
	if _, err := WriteResultToFile(d, duration, cfg, progressOut); err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "Result written to %s%s%s\n", ui.ColorCyan(), cfg.OutputFile, ui.ColorReset())
	}
	return nil
}
