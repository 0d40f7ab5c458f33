// Package testutil holds helpers for asserting on console output.
package testutil

import (
	"regexp"
	"strings"
)

// csi matches ANSI control sequences such as colors and line erasure.
var csi = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI control sequences from s.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}

// Normalize returns s as a terminal would finally show it: control
// sequences are removed and, on each line, text overwritten after a
// carriage return is dropped. Spinner frames therefore disappear.
func Normalize(s string) string {
	lines := strings.Split(StripAnsiCodes(s), "\n")
	for i, line := range lines {
		if idx := strings.LastIndexByte(line, '\r'); idx >= 0 {
			lines[i] = line[idx+1:]
		}
	}
	return strings.Join(lines, "\n")
}
