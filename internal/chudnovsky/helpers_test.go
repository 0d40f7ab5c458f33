package chudnovsky

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// goldenCase is one entry of testdata/pi_golden.json.
type goldenCase struct {
	Digits uint64 `json:"digits"`
	Value  string `json:"value"`
}

// Fractional returns the fractional digits of the golden value.
func (g goldenCase) Fractional() string {
	return strings.TrimPrefix(strings.TrimPrefix(g.Value, "3"), ".")
}

func loadGolden(t *testing.T) []goldenCase {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "pi_golden.json"))
	if err != nil {
		t.Fatalf("Failed to read golden file: %v. Did you run 'go run ./cmd/generate-golden'?", err)
	}
	var cases []goldenCase
	if err := json.Unmarshal(data, &cases); err != nil {
		t.Fatalf("Failed to decode golden file: %v", err)
	}
	return cases
}

func goldenFor(t *testing.T, digits uint64) string {
	t.Helper()
	for _, c := range loadGolden(t) {
		if c.Digits == digits {
			return c.Fractional()
		}
	}
	t.Fatalf("no golden entry for %d digits", digits)
	return ""
}

// fractionalDigits renders the first digits fractional digits of pi the
// way the output stage does: digits+2 significant digits, exponent checked.
func fractionalDigits(t *testing.T, pi *big.Float, digits uint64) string {
	t.Helper()
	mant, exp, ok := strings.Cut(pi.Text('e', int(digits)+1), "e")
	if !ok || exp != "+00" {
		t.Fatalf("unexpected rendering of pi: %s", pi.Text('e', 10))
	}
	all := strings.Replace(mant, ".", "", 1)
	if all[0] != '3' {
		t.Fatalf("leading digit = %c, want 3", all[0])
	}
	return all[1 : digits+1]
}
