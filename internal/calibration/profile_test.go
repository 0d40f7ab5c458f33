package calibration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestNewProfile(t *testing.T) {
	t.Parallel()
	profile := NewProfile()

	if profile.NumCPU != runtime.NumCPU() {
		t.Errorf("NumCPU = %d, want %d", profile.NumCPU, runtime.NumCPU())
	}
	if profile.GOARCH != runtime.GOARCH {
		t.Errorf("GOARCH = %s, want %s", profile.GOARCH, runtime.GOARCH)
	}
	if profile.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", profile.GoVersion, runtime.Version())
	}
	if profile.ProfileVersion != CurrentProfileVersion {
		t.Errorf("ProfileVersion = %d, want %d", profile.ProfileVersion, CurrentProfileVersion)
	}
	if profile.CalibratedAt.IsZero() {
		t.Error("CalibratedAt is zero")
	}
	if profile.IsValid() {
		t.Error("a profile without schedule must not be valid")
	}
}

func TestProfileSaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")

	original := NewProfile()
	original.Schedule = "guided"
	original.Chunk = 16
	original.Workers = 8
	original.CalibrationDigits = CalibrationDigits
	original.CalibrationTime = "12.5s"
	if err := original.SaveProfile(path); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("profile file was not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if loaded.Schedule != "guided" || loaded.Chunk != 16 || loaded.Workers != 8 {
		t.Errorf("loaded schedule = %s/%d/%d, want guided/16/8", loaded.Schedule, loaded.Chunk, loaded.Workers)
	}
	if loaded.CalibrationDigits != CalibrationDigits {
		t.Errorf("CalibrationDigits = %d, want %d", loaded.CalibrationDigits, CalibrationDigits)
	}
	if !loaded.IsValid() {
		t.Error("loaded profile should be valid on the machine that saved it")
	}
	if !ProfileExists(path) {
		t.Error("ProfileExists = false after save")
	}
}

func TestLoadProfileErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := LoadProfile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfile(bad); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("err = %v, want parse error", err)
	}
	if ProfileExists(filepath.Join(dir, "missing.json")) {
		t.Error("ProfileExists = true for a missing file")
	}
}

func TestProfileIsValid(t *testing.T) {
	t.Parallel()
	valid := func() *CalibrationProfile {
		p := NewProfile()
		p.Schedule = "static"
		return p
	}

	tests := []struct {
		name   string
		mutate func(p *CalibrationProfile)
		want   bool
	}{
		{"matching machine", func(*CalibrationProfile) {}, true},
		{"other version", func(p *CalibrationProfile) { p.ProfileVersion++ }, false},
		{"other core count", func(p *CalibrationProfile) { p.NumCPU++ }, false},
		{"other architecture", func(p *CalibrationProfile) { p.GOARCH = "sparc" }, false},
		{"other word size", func(p *CalibrationProfile) { p.WordSize = 16 }, false},
		{"no schedule", func(p *CalibrationProfile) { p.Schedule = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid()
			tt.mutate(p)
			if got := p.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}

	var nilProfile *CalibrationProfile
	if nilProfile.IsValid() {
		t.Error("nil profile must not be valid")
	}
}

func TestProfileIsStale(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	if p.IsStale(time.Hour) {
		t.Error("fresh profile reported stale")
	}
	p.CalibratedAt = time.Now().Add(-48 * time.Hour)
	if !p.IsStale(24 * time.Hour) {
		t.Error("two day old profile not stale after one day")
	}
	var nilProfile *CalibrationProfile
	if !nilProfile.IsStale(time.Hour) {
		t.Error("nil profile must be stale")
	}
}

func TestProfileString(t *testing.T) {
	t.Parallel()
	p := NewProfile()
	p.Schedule = "dynamic"
	p.Chunk = 4
	s := p.String()
	for _, want := range []string{"Schedule: dynamic", "Chunk: 4", p.CPUModel} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	var nilProfile *CalibrationProfile
	if nilProfile.String() != "<nil profile>" {
		t.Errorf("nil String() = %q", nilProfile.String())
	}
}

func TestLoadOrCreateProfile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	p, loaded := LoadOrCreateProfile(filepath.Join(dir, "missing.json"))
	if loaded || p == nil {
		t.Fatalf("missing file: loaded=%v profile=%v", loaded, p)
	}

	foreign := NewProfile()
	foreign.Schedule = "static"
	foreign.NumCPU = runtime.NumCPU() + 1
	path := filepath.Join(dir, "foreign.json")
	if err := foreign.SaveProfile(path); err != nil {
		t.Fatal(err)
	}
	if _, loaded := LoadOrCreateProfile(path); loaded {
		t.Error("profile from another machine was loaded")
	}
}

func TestCPUFeatures(t *testing.T) {
	t.Parallel()
	for _, f := range cpuFeatures() {
		if f == "" || strings.ToLower(f) != f {
			t.Errorf("feature %q is not a lower-case name", f)
		}
	}
}
