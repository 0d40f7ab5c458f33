package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/agbru/picalc/internal/calibration"
	"github.com/agbru/picalc/internal/chudnovsky"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/testutil"
)

const pi20 = "3.14159265358979323846"

// newApp builds an Application whose calibration profile lives in a temp
// directory, so a profile in the user's home never leaks into a test.
func newApp(t *testing.T, factory chudnovsky.CalculatorFactory, args ...string) (*Application, *bytes.Buffer) {
	t.Helper()
	var errBuf bytes.Buffer
	full := append([]string{"picalc", "--calibration-profile", filepath.Join(t.TempDir(), "profile.json")}, args...)
	if factory == nil {
		factory = chudnovsky.NewDefaultFactory()
	}
	a, err := NewWithFactory(full, &errBuf, factory)
	if err != nil {
		t.Fatalf("NewWithFactory(%v): %v\n%s", args, err, errBuf.String())
	}
	return a, &errBuf
}

// blockingFactory serves one calculator that only returns when its
// context ends.
func blockingFactory() chudnovsky.CalculatorFactory {
	calc := &chudnovsky.MockCalculator{
		NameValue: "series",
		Fn: func(ctx context.Context, digits uint64, opts chudnovsky.Options) (*chudnovsky.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	return chudnovsky.NewTestFactory(map[string]chudnovsky.Calculator{"series": calc})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid arguments", func(t *testing.T) {
		t.Parallel()
		a, _ := newApp(t, nil, "-d", "50", "-c", "--schedule", "static", "--chunk", "3")
		if a.Config.Digits != 50 || !a.Config.NoOutput {
			t.Errorf("Digits=%d NoOutput=%v", a.Config.Digits, a.Config.NoOutput)
		}
		if a.Config.Schedule != "static" || a.Config.Chunk != 3 {
			t.Errorf("explicit schedule replaced: %s/%d", a.Config.Schedule, a.Config.Chunk)
		}
		if a.Factory == nil || a.ErrWriter == nil {
			t.Error("factory or error writer not set")
		}
	})

	t.Run("default schedule is estimated", func(t *testing.T) {
		t.Parallel()
		a, _ := newApp(t, nil)
		want := calibration.EstimateCandidate()
		if a.Config.Schedule != want.Schedule || a.Config.Chunk != want.Chunk {
			t.Errorf("schedule = %s/%d, want %v", a.Config.Schedule, a.Config.Chunk, want)
		}
	})

	t.Run("global factory", func(t *testing.T) {
		t.Parallel()
		a, err := New([]string{"picalc", "-d", "5", "--calibration-profile", filepath.Join(t.TempDir(), "p.json")}, &bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		if len(a.Factory.List()) < 2 {
			t.Errorf("global factory lists %v", a.Factory.List())
		}
	})
}

func TestNewAppliesCalibrationProfile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")
	profile := calibration.NewProfile()
	profile.Schedule = "guided"
	profile.Chunk = 16
	if err := profile.SaveProfile(path); err != nil {
		t.Fatal(err)
	}

	a, err := NewWithFactory([]string{"picalc", "--calibration-profile", path}, &bytes.Buffer{}, chudnovsky.NewDefaultFactory())
	if err != nil {
		t.Fatal(err)
	}
	if a.Config.Schedule != "guided" || a.Config.Chunk != 16 {
		t.Errorf("schedule = %s/%d, want guided/16", a.Config.Schedule, a.Config.Chunk)
	}

	a, err = NewWithFactory([]string{"picalc", "--calibration-profile", path, "--schedule", "static"}, &bytes.Buffer{}, chudnovsky.NewDefaultFactory())
	if err != nil {
		t.Fatal(err)
	}
	if a.Config.Schedule != "static" {
		t.Errorf("profile overrode an explicit schedule: %s", a.Config.Schedule)
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		args     []string
		wantHelp bool
		wantCode int
	}{
		{"help", []string{"--help"}, true, apperrors.ExitSuccess},
		{"unknown flag", []string{"--bogus"}, false, apperrors.ExitErrorConfig},
		{"unknown schedule", []string{"--schedule", "fastest"}, false, apperrors.ExitErrorConfig},
		{"small buffer", []string{"-b", "16"}, false, apperrors.ExitErrorConfig},
		{"unknown algorithm", []string{"--algo", "machin"}, false, apperrors.ExitErrorConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var errBuf bytes.Buffer
			a, err := New(append([]string{"picalc"}, tt.args...), &errBuf)
			if err == nil || a != nil {
				t.Fatalf("New(%v) = %v, %v; want error", tt.args, a, err)
			}
			if IsHelpError(err) != tt.wantHelp {
				t.Errorf("IsHelpError = %v, want %v", IsHelpError(err), tt.wantHelp)
			}
			if got := ExitCodeFor(err); got != tt.wantCode {
				t.Errorf("ExitCodeFor = %d, want %d", got, tt.wantCode)
			}
			if errBuf.Len() == 0 {
				t.Error("nothing printed to the error writer")
			}
		})
	}
	if ExitCodeFor(nil) != apperrors.ExitSuccess {
		t.Error("ExitCodeFor(nil) != success")
	}
}

func TestRunVersion(t *testing.T) {
	a, _ := newApp(t, nil, "-V")
	var out bytes.Buffer
	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out.String(), "picalc ") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRunCompletion(t *testing.T) {
	a, _ := newApp(t, nil, "--completion", "bash")
	var out bytes.Buffer
	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "complete -F _picalc_completions picalc") {
		t.Errorf("bash script missing registration:\n%s", out.String())
	}

	a, errBuf := newApp(t, nil, "--completion", "tcsh")
	if code := a.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
	if !strings.Contains(errBuf.String(), "unsupported shell") {
		t.Errorf("error output = %q", errBuf.String())
	}
}

func TestRunCalculate(t *testing.T) {
	t.Run("quiet prints only the digits", func(t *testing.T) {
		a, _ := newApp(t, nil, "-d", "20", "-c", "-q", "--no-color")
		var out bytes.Buffer
		if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d\n%s", code, out.String())
		}
		if out.String() != pi20+"\n" {
			t.Errorf("output = %q, want %q", out.String(), pi20+"\n")
		}
	})

	t.Run("report and file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pi.txt")
		a, _ := newApp(t, nil, "-d", "100", "--algo", "all", "-o", path, "--no-color", "-t", "2")
		var out bytes.Buffer
		if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d\n%s", code, out.String())
		}
		text := testutil.Normalize(out.String())
		for _, want := range []string{"Global Status: Success", "pi = " + pi20, "Result written to " + path} {
			if !strings.Contains(text, want) {
				t.Errorf("output missing %q:\n%s", want, text)
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("output file: %v", err)
		}
		if !strings.HasPrefix(string(data), "Pi calculated to 100 digits. Computation time: ") {
			t.Errorf("unexpected header: %.60q", data)
		}
		if !strings.Contains(string(data), "\n\n3.\n1415926535") {
			t.Errorf("digits missing from file: %.120q", data)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		a, _ := newApp(t, blockingFactory(), "-d", "10", "-c", "--timeout", "50ms", "--no-color")
		var out bytes.Buffer
		if code := a.Run(context.Background(), &out); code != apperrors.ExitErrorTimeout {
			t.Errorf("exit code = %d, want %d\n%s", code, apperrors.ExitErrorTimeout, out.String())
		}
	})

	t.Run("canceled", func(t *testing.T) {
		a, _ := newApp(t, blockingFactory(), "-d", "10", "-c", "--no-color")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if code := a.Run(ctx, &bytes.Buffer{}); code != apperrors.ExitErrorCanceled {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		a, errBuf := newApp(t, nil, "-d", "5", "-c")
		a.Config.LogLevel = "loud"
		if code := a.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorConfig {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
		}
		if !strings.Contains(errBuf.String(), "log level") {
			t.Errorf("error output = %q", errBuf.String())
		}
	})
}

func TestRunJSON(t *testing.T) {
	a, _ := newApp(t, nil, "-d", "10", "--json", "--algo", "all", "-c")
	var out bytes.Buffer
	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d\n%s", code, out.String())
	}
	var results []jsonResult
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Pi != "3.1415926535" || r.Digits != 10 || r.Error != "" {
			t.Errorf("result = %+v", r)
		}
	}
}

func TestPrintJSONResults(t *testing.T) {
	t.Parallel()
	good := chudnovsky.ResultFromString(pi20, 10)
	wrong := chudnovsky.ResultFromString("3.14159265000000000000", 10)
	timeout := context.DeadlineExceeded

	tests := []struct {
		name     string
		results  []orchestration.CalculationResult
		wantCode int
	}{
		{"success", []orchestration.CalculationResult{{Name: "a", Result: good}}, apperrors.ExitSuccess},
		{"consistent", []orchestration.CalculationResult{{Name: "a", Result: good}, {Name: "b", Result: good}}, apperrors.ExitSuccess},
		{"tolerated failure", []orchestration.CalculationResult{{Name: "a", Err: errors.New("boom")}, {Name: "b", Result: good}}, apperrors.ExitSuccess},
		{"mismatch", []orchestration.CalculationResult{{Name: "a", Result: good}, {Name: "b", Result: wrong}}, apperrors.ExitErrorMismatch},
		{"timeout", []orchestration.CalculationResult{{Name: "a", Err: timeout}}, apperrors.ExitErrorTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			if code := printJSONResults(tt.results, 10, &out); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			var decoded []jsonResult
			if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			for i, r := range decoded {
				if (tt.results[i].Err != nil) != (r.Error != "") {
					t.Errorf("entry %d error = %q, source error %v", i, r.Error, tt.results[i].Err)
				}
			}
		})
	}
}

func TestRunREPL(t *testing.T) {
	a, _ := newApp(t, nil, "--interactive", "--no-color")
	a.In = strings.NewReader("calc 10\nexit\n")
	var out bytes.Buffer
	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "pi = 3.1415926535") {
		t.Errorf("REPL did not calculate:\n%s", out.String())
	}
}

func TestRunCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	calc := &chudnovsky.MockCalculator{
		NameValue: "series",
		Result:    chudnovsky.ResultFromString(pi20, 20),
	}
	factory := chudnovsky.NewTestFactory(map[string]chudnovsky.Calculator{"series": calc})
	a, err := NewWithFactory([]string{"picalc", "--calibrate", "--calibration-profile", path, "--no-color"}, &bytes.Buffer{}, factory)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d\n%s", code, out.String())
	}
	profile, err := calibration.LoadProfile(path)
	if err != nil {
		t.Fatalf("profile not written: %v", err)
	}
	if !profile.IsValid() {
		t.Errorf("saved profile is not valid: %s", profile)
	}
}

func TestRunServer(t *testing.T) {
	t.Run("port in use", func(t *testing.T) {
		ln, err := net.Listen("tcp", ":0")
		if err != nil {
			t.Skipf("cannot listen: %v", err)
		}
		defer ln.Close()
		port := ln.Addr().(*net.TCPAddr).Port

		a, errBuf := newApp(t, nil, "--server", "--port", strconv.Itoa(port), "--log-level", "disabled")
		if code := a.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorGeneric {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorGeneric)
		}
		if !strings.Contains(errBuf.String(), "Server error") {
			t.Errorf("error output = %q", errBuf.String())
		}
	})

	t.Run("graceful shutdown", func(t *testing.T) {
		a, _ := newApp(t, nil, "--server", "--port", "0", "--log-level", "disabled")
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if code := a.Run(ctx, &bytes.Buffer{}); code != apperrors.ExitSuccess {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitSuccess)
		}
	})
}
