// Package parallel holds the fork/join helpers shared by the recursive
// evaluators.
package parallel

import (
	"context"
	"sync"
	"sync/atomic"
)

// FirstError keeps the first non-nil error reported by concurrent workers.
// The zero value is ready to use.
type FirstError struct {
	err atomic.Pointer[error]
}

// Record stores err unless an error is already held. It reports whether err
// was non-nil.
func (f *FirstError) Record(err error) bool {
	if err == nil {
		return false
	}
	f.err.CompareAndSwap(nil, &err)
	return true
}

// Err returns the recorded error, or nil.
func (f *FirstError) Err() error {
	if p := f.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Stopped reports whether work should be abandoned, either because an error
// was already recorded or because ctx is done. A context error is recorded.
func (f *FirstError) Stopped(ctx context.Context) bool {
	if f.err.Load() != nil {
		return true
	}
	return f.Record(ctx.Err())
}

// Fork runs left and right and returns once both are done. When concurrent
// is set, left runs on a new goroutine while right runs on the caller's.
func Fork(concurrent bool, left, right func()) {
	if !concurrent {
		left()
		right()
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		left()
	}()
	right()
	wg.Wait()
}
