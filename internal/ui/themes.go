// Package ui holds the color themes of the console output. Every package
// that prints styled text reads the active theme through the Color
// functions, so disabling colors is a single switch.
package ui

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// ThemeEnv selects a theme by name ("dark", "light", "none").
const ThemeEnv = "PICALC_THEME"

// Theme maps each styling role to an ANSI escape sequence.
type Theme struct {
	Name string
	// Primary marks calculator names and headings.
	Primary string
	// Secondary marks parameters and paths.
	Secondary string
	Success   string
	Warning   string
	Error     string
	Info      string
	Bold      string
	Underline string
	Reset     string
}

// ansi256 returns the escape sequence selecting color n of the 256-color
// palette.
func ansi256(n string) string { return "\033[38;5;" + n + "m" }

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   ansi256("39"),
		Secondary: ansi256("245"),
		Success:   ansi256("82"),
		Warning:   ansi256("220"),
		Error:     ansi256("196"),
		Info:      ansi256("141"),
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   ansi256("27"),
		Secondary: ansi256("240"),
		Success:   ansi256("28"),
		Warning:   ansi256("130"),
		Error:     ansi256("124"),
		Info:      ansi256("54"),
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme produces plain text.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	themeMutex   sync.RWMutex
	currentTheme = DarkTheme
)

// ThemeNames returns the registered theme names in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme activates t. Tests use it to restore the previous theme.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates the theme registered under name, case-insensitively.
// It reports false and leaves the active theme unchanged for an unknown
// name.
func SetTheme(name string) bool {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return false
	}
	SetCurrentTheme(t)
	return true
}

// InitTheme picks the theme for this process and reports whether colors
// are disabled. Colors are off when noColor is set, when NO_COLOR is
// present in the environment (https://no-color.org/) or when TERM is
// "dumb". Otherwise PICALC_THEME selects the theme, dark by default.
func InitTheme(noColor bool) bool {
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	if noColor || noColorEnv || os.Getenv("TERM") == "dumb" {
		SetCurrentTheme(NoColorTheme)
		return true
	}
	if !SetTheme(os.Getenv(ThemeEnv)) {
		SetCurrentTheme(DarkTheme)
	}
	return GetCurrentTheme().Name == NoColorTheme.Name
}

// IsTerminal reports whether f is attached to a terminal, including
// Cygwin and MSYS pseudo terminals.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
