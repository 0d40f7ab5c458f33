package chudnovsky

import (
	"context"
	"maps"
	"math/big"
	"slices"
)

// MockCalculator is a Calculator with canned behavior, exported so that
// tests in other packages can drive the orchestration layer without running
// the series.
type MockCalculator struct {
	// NameValue is returned by Name; "mock" when empty.
	NameValue string
	Result    *Result
	Err       error
	// Fn, when set, replaces the canned Result and Err.
	Fn func(ctx context.Context, digits uint64, opts Options) (*Result, error)
}

// Name returns the configured name.
func (m *MockCalculator) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// Calculate returns the canned values, or calls Fn when it is set.
func (m *MockCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, digits uint64, opts Options) (*Result, error) {
	if m.Fn != nil {
		return m.Fn(ctx, digits, opts)
	}
	if progressChan != nil {
		select {
		case progressChan <- ProgressUpdate{CalculatorIndex: calcIndex, Value: 1.0}:
		default:
		}
	}
	return m.Result, m.Err
}

// ResultFromString builds a Result whose Pi parses from s at a precision
// large enough for digits. It panics on malformed input and is meant for
// tests.
func ResultFromString(s string, digits uint64) *Result {
	plan := NewPlan(digits)
	pi, _, err := big.ParseFloat(s, 10, plan.Precision, big.ToNearestEven)
	if err != nil {
		panic("chudnovsky: invalid test value " + s)
	}
	return &Result{Pi: pi, Plan: plan, Workers: 1, Terms: plan.Iterations}
}

// TestFactory is a CalculatorFactory pre-populated with fixed calculators.
type TestFactory struct {
	calculators map[string]Calculator
}

// NewTestFactory returns a factory serving the given calculators.
func NewTestFactory(calculators map[string]Calculator) *TestFactory {
	if calculators == nil {
		calculators = make(map[string]Calculator)
	}
	return &TestFactory{calculators: calculators}
}

// Create returns the calculator registered under name.
func (f *TestFactory) Create(name string) (Calculator, error) {
	return f.Get(name)
}

// Get returns the calculator registered under name.
func (f *TestFactory) Get(name string) (Calculator, error) {
	calc, ok := f.calculators[name]
	if !ok {
		return nil, &UnknownCalculatorError{Name: name}
	}
	return calc, nil
}

// List returns the registered names, sorted.
func (f *TestFactory) List() []string {
	return slices.Sorted(maps.Keys(f.calculators))
}

// Register is a no-op; calculators are fixed at construction.
func (f *TestFactory) Register(string, func() coreCalculator) error {
	return nil
}

// GetAll returns a copy of the calculator map.
func (f *TestFactory) GetAll() map[string]Calculator {
	return maps.Clone(f.calculators)
}
