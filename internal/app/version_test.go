package app

import (
	"bytes"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestHasVersionFlag(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"empty", nil, false},
		{"no version flag", []string{"-d", "100"}, false},
		{"long", []string{"--version"}, true},
		{"short", []string{"-V"}, true},
		{"single dash", []string{"-version"}, true},
		{"after other flags", []string{"-d", "100", "--server", "--version"}, true},
		{"verbose is not version", []string{"-v"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HasVersionFlag(tt.args); got != tt.want {
				t.Errorf("HasVersionFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintVersion(&buf)
	out := buf.String()
	for _, want := range []string{"picalc ", "Commit:", "Built:", "Go version: " + runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintVersion output missing %q:\n%s", want, out)
		}
	}
}

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()
	info := GetVersionInfo()
	if info.GoVersion != runtime.Version() || info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("runtime fields = %+v", info)
	}
	if info.Version == "" || info.Commit == "" || info.BuildDate == "" {
		t.Errorf("empty build fields: %+v", info)
	}
}

func TestFillFromBuildInfo(t *testing.T) {
	t.Parallel()
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	tests := []struct {
		name string
		in   VersionData
		want VersionData
	}{
		{
			name: "defaults are filled",
			in:   VersionData{Version: "dev", Commit: "unknown", BuildDate: "unknown"},
			want: VersionData{Version: "v1.2.3", Commit: "0123456789ab", BuildDate: "2026-01-02T03:04:05Z"},
		},
		{
			name: "ldflags win",
			in:   VersionData{Version: "v9.9.9", Commit: "cafe", BuildDate: "today"},
			want: VersionData{Version: "v9.9.9", Commit: "cafe", BuildDate: "today"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.in
			fillFromBuildInfo(&got, bi)
			if got != tt.want {
				t.Errorf("fillFromBuildInfo = %+v, want %+v", got, tt.want)
			}
		})
	}

	devel := VersionData{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
	fillFromBuildInfo(&devel, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if devel.Version != "dev" {
		t.Errorf("(devel) replaced the version: %q", devel.Version)
	}
}
