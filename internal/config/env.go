// Package config provides the configuration management for the picalc application.
// This file contains environment variable utilities for configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as uint64, or the default value if not set
// or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as time.Duration, or the default value if not
// set or invalid. Accepts formats like "5m", "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables:
//   - PICALC_DIGITS: Number of fractional digits (uint64)
//   - PICALC_THREADS: Worker count (int)
//   - PICALC_CHUNK: Schedule chunk size (int)
//   - PICALC_BUFFER: Output buffer size in bytes (int)
//   - PICALC_TIMEOUT: Calculation timeout (duration: "30m", "90s")
//   - PICALC_ALGO: Calculator to use (string: series, split, all)
//   - PICALC_SCHEDULE: Work distribution policy (string: static, dynamic, guided)
//   - PICALC_OUTPUT: Output file path (string)
//   - PICALC_PORT: Port for server mode (string)
//   - PICALC_LOG_LEVEL: zerolog level (string)
//   - PICALC_CALIBRATION_PROFILE: Path to calibration profile (string)
//   - PICALC_FORMAT, PICALC_NO_OUTPUT, PICALC_QUIET, PICALC_JSON,
//     PICALC_VERBOSE, PICALC_DETAILS, PICALC_SERVER, PICALC_INTERACTIVE,
//     PICALC_CALIBRATE, PICALC_NO_COLOR: switches (bool: true/false, 1/0, yes/no)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

// anyFlagSet reports whether any of the given aliases was set explicitly.
func anyFlagSet(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !anyFlagSet(fs, "digits", "d") {
		config.Digits = getEnvUint64("DIGITS", config.Digits)
	}
	if !anyFlagSet(fs, "threads", "t") {
		config.Threads = getEnvInt("THREADS", config.Threads)
	}
	if !isFlagSet(fs, "chunk") {
		config.Chunk = getEnvInt("CHUNK", config.Chunk)
	}
	if !anyFlagSet(fs, "buffer", "b") {
		config.BufferSize = getEnvInt("BUFFER", config.BufferSize)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "algo") {
		config.Algo = getEnvString("ALGO", config.Algo)
	}
	if !isFlagSet(fs, "schedule") {
		config.Schedule = getEnvString("SCHEDULE", config.Schedule)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !anyFlagSet(fs, "output", "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
	if !isFlagSet(fs, "calibration-profile") {
		config.CalibrationProfile = getEnvString("CALIBRATION_PROFILE", config.CalibrationProfile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	switches := []struct {
		target *bool
		env    string
		flags  []string
	}{
		{&config.Format, "FORMAT", []string{"format", "f"}},
		{&config.NoOutput, "NO_OUTPUT", []string{"no-output", "c"}},
		{&config.Quiet, "QUIET", []string{"quiet", "q"}},
		{&config.JSONOutput, "JSON", []string{"json"}},
		{&config.Verbose, "VERBOSE", []string{"v"}},
		{&config.Details, "DETAILS", []string{"details"}},
		{&config.ServerMode, "SERVER", []string{"server"}},
		{&config.Interactive, "INTERACTIVE", []string{"interactive"}},
		{&config.Calibrate, "CALIBRATE", []string{"calibrate"}},
		{&config.NoColor, "NO_COLOR", []string{"no-color"}},
	}
	for _, s := range switches {
		if !anyFlagSet(fs, s.flags...) {
			*s.target = getEnvBool(s.env, *s.target)
		}
	}
}
