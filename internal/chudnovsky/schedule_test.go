package chudnovsky

import (
	"errors"
	"sync"
	"testing"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// drain pulls chunks for every worker concurrently and returns them per
// worker, in the order each worker received them.
func drain(src Source, workers int) [][]Chunk {
	out := make([][]Chunk, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				c, ok := src.Next(w)
				if !ok {
					return
				}
				out[w] = append(out[w], c)
			}
		}()
	}
	wg.Wait()
	return out
}

// isPartition reports whether the chunks cover [0, n) exactly once.
func isPartition(chunks [][]Chunk, n uint64) bool {
	seen := make([]bool, n)
	for _, list := range chunks {
		for _, c := range list {
			if c.Start >= c.End || c.End > n {
				return false
			}
			for k := c.Start; k < c.End; k++ {
				if seen[k] {
					return false
				}
				seen[k] = true
			}
		}
	}
	for _, s := range seen {
		if !s {
			return false
		}
	}
	return true
}

func TestSchedulePartition_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, name := range ScheduleNames {
		properties.Property(name+" partitions the index range", prop.ForAll(
			func(n uint64, workers int, chunk int) bool {
				s, err := ParseSchedule(name, chunk)
				if err != nil {
					return false
				}
				return isPartition(drain(s.Partition(n, workers), workers), n)
			},
			gen.UInt64Range(0, 400),
			gen.IntRange(1, 16),
			gen.IntRange(0, 25),
		))
	}

	properties.TestingRun(t)
}

func TestStaticScheduleBlocks(t *testing.T) {
	t.Parallel()
	s, _ := ParseSchedule("static", 0)
	got := drain(s.Partition(10, 3), 3)

	want := [][]Chunk{{{0, 4}}, {{4, 7}}, {{7, 10}}}
	for w := range want {
		if len(got[w]) != 1 || got[w][0] != want[w][0] {
			t.Errorf("worker %d got %v, want %v", w, got[w], want[w])
		}
	}
}

func TestStaticScheduleRoundRobin(t *testing.T) {
	t.Parallel()
	s, _ := ParseSchedule("static", 2)
	got := drain(s.Partition(9, 2), 2)

	want := [][]Chunk{
		{{0, 2}, {4, 6}, {8, 9}},
		{{2, 4}, {6, 8}},
	}
	for w := range want {
		if len(got[w]) != len(want[w]) {
			t.Fatalf("worker %d got %v, want %v", w, got[w], want[w])
		}
		for i := range want[w] {
			if got[w][i] != want[w][i] {
				t.Errorf("worker %d chunk %d = %v, want %v", w, i, got[w][i], want[w][i])
			}
		}
	}
}

func TestStaticScheduleMoreWorkersThanIndices(t *testing.T) {
	t.Parallel()
	s, _ := ParseSchedule("static", 0)
	got := drain(s.Partition(2, 5), 5)
	if !isPartition(got, 2) {
		t.Fatalf("not a partition: %v", got)
	}
	for w := 2; w < 5; w++ {
		if len(got[w]) != 0 {
			t.Errorf("worker %d should receive no work, got %v", w, got[w])
		}
	}
}

func TestDynamicScheduleChunkSize(t *testing.T) {
	t.Parallel()
	s, _ := ParseSchedule("dynamic", 0)
	if s.ChunkSize() != DefaultChunkSize {
		t.Errorf("default dynamic chunk = %d, want %d", s.ChunkSize(), DefaultChunkSize)
	}
	src := s.Partition(25, 1)
	var sizes []uint64
	for {
		c, ok := src.Next(0)
		if !ok {
			break
		}
		sizes = append(sizes, c.Len())
	}
	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Errorf("chunk sizes = %v, want [10 10 5]", sizes)
	}
}

func TestGuidedScheduleShrinks(t *testing.T) {
	t.Parallel()
	s, _ := ParseSchedule("guided", 2)
	src := s.Partition(100, 4)

	var sizes []uint64
	for {
		c, ok := src.Next(0)
		if !ok {
			break
		}
		sizes = append(sizes, c.Len())
	}
	if sizes[0] != 25 {
		t.Errorf("first grant = %d, want 25", sizes[0])
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i] > sizes[i-1] {
			t.Errorf("grant %d (%d) larger than grant %d (%d)", i, sizes[i], i-1, sizes[i-1])
		}
	}
	for _, size := range sizes[:len(sizes)-1] {
		if size < 2 {
			t.Errorf("grant of %d below the minimum chunk", size)
		}
	}
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		chunk    int
		wantName string
		wantErr  bool
	}{
		{"static", "static", 0, "static", false},
		{"dynamic", "dynamic", 4, "dynamic", false},
		{"guided upper case", "GUIDED", 0, "guided", false},
		{"empty defaults to dynamic", "", 0, "dynamic", false},
		{"unknown", "runtime", 0, "", true},
		{"negative chunk", "dynamic", -1, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := ParseSchedule(tt.input, tt.chunk)
			if tt.wantErr {
				var configErr apperrors.ConfigError
				if !errors.As(err, &configErr) {
					t.Fatalf("ParseSchedule(%q, %d) error = %v, want ConfigError", tt.input, tt.chunk, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q, %d) unexpected error: %v", tt.input, tt.chunk, err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}
