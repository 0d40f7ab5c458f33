package service

//go:generate mockgen -source=calculator_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agbru/picalc/internal/chudnovsky"
	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/digits"
)

// DefaultCacheSize is the number of rendered results kept by the service.
const DefaultCacheSize = 64

var (
	// ErrMaxDigitsExceeded is returned when the requested digit count exceeds
	// the configured limit.
	ErrMaxDigitsExceeded = errors.New("maximum digit count exceeded")
)

// Request describes one calculation. Zero values fall back to the service
// configuration.
type Request struct {
	Digits   uint64
	Algo     string
	Schedule string
	Chunk    int
	Workers  int
	Format   bool
}

// Response is a rendered calculation result.
type Response struct {
	Digits    uint64
	Algorithm string
	Schedule  string
	Workers   int
	// Duration is the time the calculation took when it actually ran.
	Duration time.Duration
	// Pi is "3." followed by the digit stream, or "3" when Digits is 0.
	Pi string
	// Cached reports whether Pi came from the result cache.
	Cached bool
}

// Service defines the interface for pi calculation services.
// This abstraction enables dependency injection and easier testing/mocking.
type Service interface {
	// Calculate computes and renders pi for the request.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - req: The calculation request.
	//
	// Returns:
	//   - *Response: The rendered result.
	//   - error: An error if validation or calculation fails.
	Calculate(ctx context.Context, req Request) (*Response, error)
}

type cacheKey struct {
	digits uint64
	format bool
}

type cachedResult struct {
	pi       string
	duration time.Duration
}

// CalculatorService handles the core logic for calculating pi on behalf of
// the server and the REPL. Rendered digit strings are memoised in an LRU
// cache keyed by digit count and layout, since every calculator and schedule
// yields the same digits.
type CalculatorService struct {
	factory   chudnovsky.CalculatorFactory
	config    config.AppConfig
	maxDigits uint64
	cache     *lru.Cache[cacheKey, cachedResult]
}

// Ensure CalculatorService implements Service interface.
var _ Service = (*CalculatorService)(nil)

// NewCalculatorService creates a new instance of CalculatorService.
//
// Parameters:
//   - factory: The factory to retrieve calculators from.
//   - cfg: The application configuration supplying defaults.
//   - maxDigits: The maximum allowed digit count (0 for no limit).
//   - cacheSize: The number of cached results (0 disables caching).
func NewCalculatorService(factory chudnovsky.CalculatorFactory, cfg config.AppConfig, maxDigits uint64, cacheSize int) (*CalculatorService, error) {
	s := &CalculatorService{
		factory:   factory,
		config:    cfg,
		maxDigits: maxDigits,
	}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, cachedResult](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating result cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Calculate validates the request, serves it from the cache when possible,
// and otherwise runs the requested calculator and renders its digits.
func (s *CalculatorService) Calculate(ctx context.Context, req Request) (*Response, error) {
	if s.maxDigits > 0 && req.Digits > s.maxDigits {
		return nil, ErrMaxDigitsExceeded
	}
	req = s.withDefaults(req)
	if _, err := chudnovsky.ParseSchedule(req.Schedule, req.Chunk); err != nil {
		return nil, err
	}

	// Unknown names fail the same way whether or not the digits are cached.
	calc, err := s.factory.Get(req.Algo)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Digits:    req.Digits,
		Algorithm: req.Algo,
		Schedule:  req.Schedule,
		Workers:   req.Workers,
	}
	key := cacheKey{digits: req.Digits, format: req.Format}
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			resp.Pi, resp.Duration, resp.Cached = hit.pi, hit.duration, true
			return resp, nil
		}
	}

	start := time.Now()
	opts := chudnovsky.Options{Workers: req.Workers, Schedule: req.Schedule, ChunkSize: req.Chunk}
	result, err := calc.Calculate(ctx, nil, 0, req.Digits, opts)
	if err != nil {
		return nil, err
	}
	resp.Duration = time.Since(start)

	resp.Pi, err = Render(result.Pi, req.Digits, req.Format)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, cachedResult{pi: resp.Pi, duration: resp.Duration})
	}
	return resp, nil
}

func (s *CalculatorService) withDefaults(req Request) Request {
	if req.Algo == "" {
		req.Algo = s.config.Algo
		if req.Algo == "" || req.Algo == "all" {
			req.Algo = config.DefaultAlgo
		}
	}
	if req.Schedule == "" {
		req.Schedule = s.config.Schedule
		if req.Schedule == "" {
			req.Schedule = chudnovsky.ScheduleDynamic
		}
	}
	if req.Workers <= 0 {
		req.Workers = s.config.Threads
	}
	return req
}

// Render expands pi to count fractional digits and lays them out with the
// digit stream writer, prefixed by "3.".
func Render(pi *big.Float, count uint64, format bool) (string, error) {
	if count == 0 {
		if _, err := digits.Expand(pi, 0); err != nil {
			return "", err
		}
		return "3", nil
	}
	d, err := digits.Expand(pi, count)
	if err != nil {
		return "", err
	}
	w, err := digits.NewWriter(digits.DefaultBufferSize, format)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(2 + int(digits.EncodedLen(count, format)))
	sb.WriteString("3.")
	if _, err := w.WriteDigits(&sb, d); err != nil {
		return "", err
	}
	return sb.String(), nil
}
