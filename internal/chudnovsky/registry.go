package chudnovsky

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// CalculatorFactory creates and looks up calculators by name.
type CalculatorFactory interface {
	// Create returns a new, uncached Calculator.
	Create(name string) (Calculator, error)
	// Get returns the shared Calculator registered under name.
	Get(name string) (Calculator, error)
	// List returns the registered names in sorted order.
	List() []string
	// Register adds or replaces a calculator type.
	Register(name string, creator func() coreCalculator) error
	// GetAll returns every registered calculator, keyed by name.
	GetAll() map[string]Calculator
}

// DefaultFactory is a thread-safe CalculatorFactory that builds calculators
// lazily and caches them for reuse.
type DefaultFactory struct {
	mu          sync.RWMutex
	creators    map[string]func() coreCalculator
	calculators map[string]Calculator
}

// NewDefaultFactory returns a factory with the built-in strategies:
//   - "series": term-by-term parallel reduction on math/big
//   - "split": binary splitting on math/big
//
// Builds with the "gmp" tag add "gmp" to the global factory.
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators:    make(map[string]func() coreCalculator),
		calculators: make(map[string]Calculator),
	}
	_ = f.Register("series", func() coreCalculator { return NewSeriesCalculator(BigKernel{}) })
	_ = f.Register("split", func() coreCalculator { return &SplitCalculator{} })
	return f
}

// Register adds a calculator type, replacing any previous registration and
// dropping its cached instance.
func (f *DefaultFactory) Register(name string, creator func() coreCalculator) error {
	if creator == nil {
		return fmt.Errorf("calculator %q: nil creator", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
	delete(f.calculators, name)
	return nil
}

// Create returns a fresh Calculator for name.
func (f *DefaultFactory) Create(name string) (Calculator, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	return NewCalculator(creator()), nil
}

// Get returns the cached Calculator for name, creating it on first use.
func (f *DefaultFactory) Get(name string) (Calculator, error) {
	f.mu.RLock()
	calc, ok := f.calculators[name]
	f.mu.RUnlock()
	if ok {
		return calc, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if calc, ok := f.calculators[name]; ok {
		return calc, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	calc = NewCalculator(creator())
	f.calculators[name] = calc
	return calc, nil
}

// List returns the registered names, sorted.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Sorted(maps.Keys(f.creators))
}

// GetAll returns every registered calculator, creating missing instances.
func (f *DefaultFactory) GetAll() map[string]Calculator {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make(map[string]Calculator, len(f.creators))
	for name, creator := range f.creators {
		calc, ok := f.calculators[name]
		if !ok {
			calc = NewCalculator(creator())
			f.calculators[name] = calc
		}
		all[name] = calc
	}
	return all
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[name]
	return ok
}

// UnknownCalculatorError is returned when a calculator name is not registered.
type UnknownCalculatorError struct {
	Name string
}

func (e *UnknownCalculatorError) Error() string {
	return "unknown calculator: " + e.Name
}

var globalFactory = NewDefaultFactory()

// GlobalFactory returns the process-wide factory.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}

// RegisterCalculator registers a calculator in the global factory.
func RegisterCalculator(name string, creator func() coreCalculator) error {
	return globalFactory.Register(name, creator)
}
