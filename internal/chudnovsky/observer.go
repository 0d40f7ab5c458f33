package chudnovsky

import (
	"slices"
	"sync"
)

// ProgressObserver receives progress notifications from a running
// calculation. Update may be called from several worker goroutines.
type ProgressObserver interface {
	// Update is called with the calculator index and the normalized
	// progress (0.0 to 1.0).
	Update(calcIndex int, progress float64)
}

// ProgressSubject fans progress notifications out to registered observers,
// in registration order. It is safe for concurrent use.
type ProgressSubject struct {
	mu        sync.RWMutex
	observers []ProgressObserver
}

// NewProgressSubject returns a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer. Nil observers are ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, observer)
	s.mu.Unlock()
}

// Unregister removes the first registration of observer, if any.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.observers, observer); i >= 0 {
		s.observers = slices.Delete(slices.Clip(s.observers), i, i+1)
	}
}

// Notify forwards one progress value to every observer.
func (s *ProgressSubject) Notify(calcIndex int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(calcIndex, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter binds the subject to a calculator index so that core
// calculators can report through a plain ProgressReporter.
func (s *ProgressSubject) AsProgressReporter(calcIndex int) ProgressReporter {
	return func(progress float64) {
		s.Notify(calcIndex, progress)
	}
}
