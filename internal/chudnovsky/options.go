package chudnovsky

import "runtime"

// Options configures a calculation.
type Options struct {
	// Workers is the number of worker goroutines W. If 0, runtime.NumCPU()
	// is used.
	Workers int
	// Schedule is the work-partitioning policy name: "static", "dynamic"
	// or "guided". If empty, "dynamic" is used.
	Schedule string
	// ChunkSize is the schedule chunk size. If 0, the policy default is used.
	ChunkSize int
}

// normalizeOptions returns a copy of opts with defaults filled in for zero
// values.
func normalizeOptions(opts Options) Options {
	normalized := opts
	if normalized.Workers <= 0 {
		normalized.Workers = runtime.NumCPU()
	}
	if normalized.Schedule == "" {
		normalized.Schedule = ScheduleDynamic
	}
	return normalized
}
