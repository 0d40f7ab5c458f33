package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/digits"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/ui"
)

func TestWriteResultToFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	res := piResult(60)
	d := expand(t, res, 60)

	tests := []struct {
		name     string
		path     string
		format   bool
		expected string
	}{
		{
			name: "Unformatted",
			path: filepath.Join(tmpDir, "pi.txt"),
			expected: "Pi calculated to 60 digits. Computation time: 2.00 seconds.\n\n3.\n" +
				"141592653589793238462643383279502884197169399375105820974944",
		},
		{
			name:   "Formatted",
			path:   filepath.Join(tmpDir, "pi_fmt.txt"),
			format: true,
			expected: "Pi calculated to 60 digits. Computation time: 2.00 seconds.\n\n3.\n" +
				"1415926535 8979323846 2643383279 5028841971 6939937510 5820974944\n",
		},
		{
			name: "Nested directory",
			path: filepath.Join(tmpDir, "nested", "dir", "pi.txt"),
			expected: "Pi calculated to 60 digits. Computation time: 2.00 seconds.\n\n3.\n" +
				"141592653589793238462643383279502884197169399375105820974944",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := OutputConfig{OutputFile: tt.path, Format: tt.format, BufferSize: digits.MinBufferSize}
			stats, err := WriteResultToFile(d, 2*time.Second, cfg, nil)
			if err != nil {
				t.Fatalf("WriteResultToFile: %v", err)
			}
			content, err := os.ReadFile(tt.path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(content) != tt.expected {
				t.Errorf("content mismatch.\nWant: %q\nGot:  %q", tt.expected, content)
			}
			if stats.Bytes != int64(len(content)) {
				t.Errorf("stats.Bytes = %d, file has %d bytes", stats.Bytes, len(content))
			}
		})
	}
}

func TestWriteResultToFileBufferInvariance(t *testing.T) {
	t.Parallel()
	calc, err := chudnovsky.NewDefaultFactory().Get("series")
	if err != nil {
		t.Fatal(err)
	}
	res, err := calc.Calculate(context.Background(), nil, 0, 3000, chudnovsky.Options{Workers: 2})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	d := expand(t, res, 3000)
	dir := t.TempDir()

	for _, format := range []bool{false, true} {
		var files [2][]byte
		var flushes [2]int
		for i, size := range []int{digits.MinBufferSize, 1_000_000} {
			path := filepath.Join(dir, fmt.Sprintf("pi_%v_%d.txt", format, size))
			stats, err := WriteResultToFile(d, time.Second, OutputConfig{OutputFile: path, Format: format, BufferSize: size}, nil)
			if err != nil {
				t.Fatalf("WriteResultToFile(buffer %d): %v", size, err)
			}
			if files[i], err = os.ReadFile(path); err != nil {
				t.Fatal(err)
			}
			flushes[i] = stats.Flushes
		}
		if !bytes.Equal(files[0], files[1]) {
			t.Errorf("format=%v: file content depends on the buffer size", format)
		}
		if flushes[0] < 3 || flushes[1] != 1 {
			t.Errorf("format=%v: flushes = %v, want several with the small buffer and one with the large", format, flushes)
		}
	}
}

func TestWriteResultToFileLeavesNoTemporaryFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d := expand(t, piResult(20), 20)
	var progress bytes.Buffer
	cfg := OutputConfig{OutputFile: filepath.Join(dir, "pi.txt"), BufferSize: digits.DefaultBufferSize}
	if _, err := WriteResultToFile(d, time.Second, cfg, &progress); err != nil {
		t.Fatalf("WriteResultToFile: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "pi.txt" {
		t.Errorf("unexpected directory content: %v", entries)
	}
}

func TestWriteResultToFileErrors(t *testing.T) {
	t.Parallel()
	d := expand(t, piResult(20), 20)

	t.Run("Buffer too small", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pi.txt")
		_, err := WriteResultToFile(d, 0, OutputConfig{OutputFile: path, BufferSize: 10}, nil)
		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Error("no file should be created for an invalid buffer")
		}
	})

	t.Run("Destination is a directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "taken")
		if err := os.Mkdir(path, 0o755); err != nil {
			t.Fatal(err)
		}
		_, err := WriteResultToFile(d, 0, OutputConfig{OutputFile: path, BufferSize: digits.MinBufferSize}, nil)
		var resErr apperrors.ResourceError
		if !errors.As(err, &resErr) {
			t.Fatalf("expected ResourceError, got %v", err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("temporary file left behind: %v", entries)
		}
	})
}

func TestFormatQuietResult(t *testing.T) {
	t.Parallel()
	if got := FormatQuietResult(expand(t, piResult(0), 0)); got != "3" {
		t.Errorf("D=0: got %q", got)
	}
	if got := FormatQuietResult(expand(t, piResult(5), 5)); got != "3.14159" {
		t.Errorf("D=5: got %q", got)
	}
}

func TestDisplayResultWithConfig(t *testing.T) {
	ui.InitTheme(true)

	t.Run("Quiet without file", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := OutputConfig{Quiet: true, NoOutput: true, BufferSize: digits.MinBufferSize}
		if err := DisplayResultWithConfig(&buf, piResult(10), 10, time.Second, cfg); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "3.1415926535\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("Writes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pi.txt")
		var buf bytes.Buffer
		cfg := OutputConfig{OutputFile: path, BufferSize: digits.MinBufferSize}
		if err := DisplayResultWithConfig(&buf, piResult(10), 10, time.Second, cfg); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Result written to "+path) {
			t.Errorf("missing confirmation: %q", buf.String())
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(string(content), "3.\n1415926535") {
			t.Errorf("unexpected content %q", content)
		}
	})

	t.Run("Numeric error writes nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pi.txt")
		var buf bytes.Buffer
		res := piResult(10)
		res.Pi.SetInt64(31)
		err := DisplayResultWithConfig(&buf, res, 10, time.Second, OutputConfig{OutputFile: path, BufferSize: digits.MinBufferSize})
		var numErr apperrors.NumericError
		if !errors.As(err, &numErr) {
			t.Fatalf("expected NumericError, got %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("nothing should be printed, got %q", buf.String())
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Error("no file should be created")
		}
	})
}
