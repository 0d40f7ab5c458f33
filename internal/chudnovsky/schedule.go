package chudnovsky

import (
	"strings"
	"sync"
	"sync/atomic"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// Chunk is a half-open range [Start, End) of series indices granted to one
// worker. Indices inside a chunk are ascending and contiguous, so a worker
// cache hits on every index after the first one of a chunk.
type Chunk struct {
	Start uint64
	End   uint64
}

// Len returns the number of indices in the chunk.
func (c Chunk) Len() uint64 {
	return c.End - c.Start
}

// Source hands out chunks to workers during one run. Next is called
// concurrently by every worker, each with its own worker index in [0, W).
// The chunks returned across all calls form a partition of [0, N).
type Source interface {
	Next(worker int) (Chunk, bool)
}

// Schedule is a work-partitioning strategy for the reduction engine.
type Schedule interface {
	// Name returns the policy name ("static", "dynamic" or "guided").
	Name() string
	// ChunkSize returns the configured chunk size after defaults are applied.
	ChunkSize() int
	// Partition prepares a Source that distributes [0, n) across workers.
	Partition(n uint64, workers int) Source
}

// Schedule names accepted by ParseSchedule.
const (
	ScheduleStatic  = "static"
	ScheduleDynamic = "dynamic"
	ScheduleGuided  = "guided"
)

// ScheduleNames lists the accepted schedule names in display order.
var ScheduleNames = []string{ScheduleStatic, ScheduleDynamic, ScheduleGuided}

// ParseSchedule resolves a schedule name and chunk size into a Schedule.
// An empty name selects the dynamic schedule. A chunk size of 0 selects the
// policy default: one contiguous block per worker for static,
// DefaultChunkSize for dynamic and DefaultGuidedMinChunk for guided.
//
// Parameters:
//   - name: The schedule name (case-insensitive).
//   - chunk: The chunk size, or 0 for the policy default.
//
// Returns:
//   - Schedule: The resolved schedule.
//   - error: A ConfigError for unknown names or negative chunk sizes.
func ParseSchedule(name string, chunk int) (Schedule, error) {
	if chunk < 0 {
		return nil, apperrors.NewConfigError("chunk size must be >= 0, got %d", chunk)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ScheduleStatic:
		return StaticSchedule{Chunk: chunk}, nil
	case ScheduleDynamic, "":
		if chunk == 0 {
			chunk = DefaultChunkSize
		}
		return DynamicSchedule{Chunk: chunk}, nil
	case ScheduleGuided:
		if chunk == 0 {
			chunk = DefaultGuidedMinChunk
		}
		return GuidedSchedule{MinChunk: chunk}, nil
	default:
		return nil, apperrors.NewConfigError("unknown schedule %q (valid: %s)", name, strings.Join(ScheduleNames, ", "))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Static
// ─────────────────────────────────────────────────────────────────────────────

// StaticSchedule assigns work once, before the run starts. With Chunk == 0
// each worker receives a single contiguous block and block sizes differ by at
// most one. With Chunk > 0 fixed-size chunks are dealt round-robin, chunk i
// going to worker i mod W.
type StaticSchedule struct {
	Chunk int
}

// Name returns "static".
func (s StaticSchedule) Name() string { return ScheduleStatic }

// ChunkSize returns the round-robin chunk size, or 0 for block mode.
func (s StaticSchedule) ChunkSize() int { return s.Chunk }

// Partition returns a Source that serves each worker its precomputed share.
func (s StaticSchedule) Partition(n uint64, workers int) Source {
	if workers < 1 {
		workers = 1
	}
	return &staticSource{
		n:       n,
		workers: uint64(workers),
		chunk:   uint64(s.Chunk),
		next:    make([]uint64, workers),
	}
}

type staticSource struct {
	n       uint64
	workers uint64
	chunk   uint64
	// next[w] is the number of grants already served to worker w. Each
	// worker only touches its own slot.
	next []uint64
}

func (s *staticSource) Next(worker int) (Chunk, bool) {
	w := uint64(worker)
	if w >= s.workers {
		return Chunk{}, false
	}
	round := s.next[worker]
	s.next[worker]++

	if s.chunk == 0 {
		if round > 0 {
			return Chunk{}, false
		}
		base, rem := s.n/s.workers, s.n%s.workers
		start := w*base + min(w, rem)
		size := base
		if w < rem {
			size++
		}
		if size == 0 {
			return Chunk{}, false
		}
		return Chunk{Start: start, End: start + size}, true
	}

	start := (round*s.workers + w) * s.chunk
	if start >= s.n {
		return Chunk{}, false
	}
	return Chunk{Start: start, End: min(start+s.chunk, s.n)}, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Dynamic
// ─────────────────────────────────────────────────────────────────────────────

// DynamicSchedule hands out fixed-size chunks from a shared cursor to
// whichever worker asks next.
type DynamicSchedule struct {
	Chunk int
}

// Name returns "dynamic".
func (s DynamicSchedule) Name() string { return ScheduleDynamic }

// ChunkSize returns the grant size.
func (s DynamicSchedule) ChunkSize() int { return s.Chunk }

// Partition returns a Source backed by an atomic cursor.
func (s DynamicSchedule) Partition(n uint64, workers int) Source {
	chunk := uint64(s.Chunk)
	if chunk == 0 {
		chunk = DefaultChunkSize
	}
	return &dynamicSource{n: n, chunk: chunk}
}

type dynamicSource struct {
	n      uint64
	chunk  uint64
	cursor atomic.Uint64
}

func (s *dynamicSource) Next(int) (Chunk, bool) {
	start := s.cursor.Add(s.chunk) - s.chunk
	if start >= s.n {
		return Chunk{}, false
	}
	return Chunk{Start: start, End: min(start+s.chunk, s.n)}, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Guided
// ─────────────────────────────────────────────────────────────────────────────

// GuidedSchedule hands out chunks proportional to the remaining work,
// ceil(remaining / W), never smaller than MinChunk. Early grants are large
// and later grants shrink geometrically, which evens out the tail.
type GuidedSchedule struct {
	MinChunk int
}

// Name returns "guided".
func (s GuidedSchedule) Name() string { return ScheduleGuided }

// ChunkSize returns the minimum grant size.
func (s GuidedSchedule) ChunkSize() int { return s.MinChunk }

// Partition returns a Source backed by a mutex-guarded cursor.
func (s GuidedSchedule) Partition(n uint64, workers int) Source {
	if workers < 1 {
		workers = 1
	}
	minChunk := uint64(s.MinChunk)
	if minChunk == 0 {
		minChunk = DefaultGuidedMinChunk
	}
	return &guidedSource{n: n, workers: uint64(workers), minChunk: minChunk}
}

type guidedSource struct {
	n        uint64
	workers  uint64
	minChunk uint64

	mu     sync.Mutex
	cursor uint64
}

func (s *guidedSource) Next(int) (Chunk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.n - s.cursor
	if remaining == 0 {
		return Chunk{}, false
	}
	size := max((remaining+s.workers-1)/s.workers, s.minChunk)
	size = min(size, remaining)

	c := Chunk{Start: s.cursor, End: s.cursor + size}
	s.cursor += size
	return c, true
}
