package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// buildBinary compiles cmd/picalc into a temporary directory. go test runs
// with the package directory as working directory, so the module root is
// two levels up.
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}
	name := "picalc"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	bin := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/picalc")
	cmd.Dir = filepath.Join("..", "..")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to build picalc: %v", err)
	}
	return bin
}

func TestCLI_E2E(t *testing.T) {
	bin := buildBinary(t)
	outFile := filepath.Join(t.TempDir(), "pi.txt")

	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantCode int
	}{
		{"quiet", []string{"-d", "20", "-c", "-q"}, "3.14159265358979323846", 0},
		{"report", []string{"-d", "60", "-c", "--no-color"}, "pi = 3.14159265358979323846264338327950288419716939937510", 0},
		{"compare", []string{"-d", "200", "-c", "--algo", "all"}, "Global Status: Success", 0},
		{"file", []string{"-d", "100", "-f", "-o", outFile}, "Result written to", 0},
		{"json", []string{"-d", "10", "--json"}, `"pi": "3.1415926535"`, 0},
		{"help", []string{"--help"}, "usage", 0},
		{"version", []string{"--version"}, "picalc", 0},
		{"bad schedule", []string{"--schedule", "fastest"}, "unknown schedule", 4},
		{"small buffer", []string{"-b", "10"}, "buffer size", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := exec.Command(bin, tt.args...).CombinedOutput()
			code := 0
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("run %v: %v", tt.args, err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\n%s", code, tt.wantCode, output)
			}
			if !strings.Contains(strings.ToLower(string(output)), strings.ToLower(tt.wantOut)) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, output)
			}
		})
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if got := lines[len(lines)-1]; got != "1415926535 8979323846 2643383279 5028841971 6939937510 5820974944 5923078164 0628620899 8628034825 3421170679" {
		t.Errorf("formatted digits line = %q", got)
	}
}
