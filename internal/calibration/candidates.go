package calibration

import (
	"fmt"
	"runtime"

	"github.com/agbru/picalc/internal/chudnovsky"
)

// CalibrationDigits is the digit count every trial computes. It is large
// enough for scheduling overhead to show and small enough to keep a full
// calibration under a minute on a laptop.
const CalibrationDigits uint64 = 20_000

// Candidate is one schedule configuration to measure.
type Candidate struct {
	Schedule string
	Chunk    int
}

func (c Candidate) String() string {
	if c.Chunk == 0 {
		return c.Schedule + " (default chunk)"
	}
	return fmt.Sprintf("%s (chunk %d)", c.Schedule, c.Chunk)
}

// chunkSizes returns the explicit chunk sizes worth trying for numCPU
// workers. Few workers favour large chunks; many workers need finer
// grains to stay balanced.
func chunkSizes(numCPU int) []int {
	switch {
	case numCPU == 1:
		return nil
	case numCPU <= 4:
		return []int{16, 64}
	case numCPU <= 16:
		return []int{4, 16, 64}
	default:
		return []int{1, 4, 16}
	}
}

// GenerateCandidates lists the configurations measured by a calibration on
// this machine: every policy with its default chunk, then the explicit
// chunk sizes suited to the core count. A single core only needs the
// static policy since there is nothing to balance.
func GenerateCandidates() []Candidate {
	numCPU := runtime.NumCPU()
	if numCPU == 1 {
		return []Candidate{{Schedule: chudnovsky.ScheduleStatic}}
	}

	var candidates []Candidate
	for _, name := range chudnovsky.ScheduleNames {
		candidates = append(candidates, Candidate{Schedule: name})
	}
	for _, name := range chudnovsky.ScheduleNames {
		for _, chunk := range chunkSizes(numCPU) {
			candidates = append(candidates, Candidate{Schedule: name, Chunk: chunk})
		}
	}
	return candidates
}

// EstimateCandidate returns the configuration used when no profile exists.
func EstimateCandidate() Candidate {
	if runtime.NumCPU() == 1 {
		return Candidate{Schedule: chudnovsky.ScheduleStatic}
	}
	return Candidate{Schedule: chudnovsky.ScheduleDynamic}
}
