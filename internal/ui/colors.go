package ui

// ColorReset ends any styling.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorRed styles failures.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen styles successes and computed digits.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow styles warnings and durations.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue styles calculator names.
func ColorBlue() string { return GetCurrentTheme().Primary }

func ColorMagenta() string { return GetCurrentTheme().Info }

// ColorCyan styles parameters and paths.
func ColorCyan() string { return GetCurrentTheme().Secondary }

func ColorBold() string { return GetCurrentTheme().Bold }

func ColorUnderline() string { return GetCurrentTheme().Underline }
