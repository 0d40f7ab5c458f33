// Package chudnovsky provides implementations for calculating the decimal
// expansion of π with the Chudnovsky series.
package chudnovsky

import "math/big"

// ─────────────────────────────────────────────────────────────────────────────
// Series Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// XBase is the base of the alternating power term X_k = XBase^k.
	// It equals -640320^3.
	XBase int64 = -262537412640768000

	// LK is the slope of the linear term L_k = LK*k + LAdd.
	LK int64 = 545140134

	// LAdd is the intercept of the linear term L_k.
	LAdd int64 = 13591409

	// CFactor and CRadicand define the closed-form constant
	// C = CFactor * sqrt(CRadicand).
	CFactor   int64 = 426880
	CRadicand int64 = 10005

	// splitQFactor is 640320^3 / 24, the per-term factor of Q in the
	// binary splitting recurrence.
	splitQFactor int64 = 10939058860032000
)

// Constants holds the shared, read-only values of one run. A Constants value
// is built once by NewConstants before any worker starts and is never mutated
// afterwards, so workers read it without synchronization.
type Constants struct {
	// Precision is the working precision P, in bits, of every big.Float of the run.
	Precision uint
	// XBase, LK and LAdd are the integer series constants.
	XBase *big.Int
	LK    *big.Int
	LAdd  *big.Int
	// C is 426880*sqrt(10005) rounded to Precision bits.
	C *big.Float
}

// NewConstants builds the run constants at the given working precision.
//
// Parameters:
//   - prec: The working precision in bits.
//
// Returns:
//   - *Constants: The immutable constants for the run.
func NewConstants(prec uint) *Constants {
	radicand := new(big.Float).SetPrec(prec).SetInt64(CRadicand)
	c := new(big.Float).SetPrec(prec).Sqrt(radicand)
	c.Mul(c, new(big.Float).SetPrec(prec).SetInt64(CFactor))

	return &Constants{
		Precision: prec,
		XBase:     big.NewInt(XBase),
		LK:        big.NewInt(LK),
		LAdd:      big.NewInt(LAdd),
		C:         c,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Performance Tuning Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// DigitsPerTerm is the integer number of decimal digits each series term
	// is credited with when planning the iteration count. The true rate is
	// about 14.18 digits per term.
	DigitsPerTerm = 14

	// DefaultChunkSize is the number of consecutive indices handed out per
	// grant by the dynamic schedule when no chunk size is configured.
	DefaultChunkSize = 10

	// DefaultGuidedMinChunk is the smallest grant of the guided schedule when
	// no chunk size is configured.
	DefaultGuidedMinChunk = 1

	// MaxDigits is the largest digit count whose working precision still fits
	// in a big.Float mantissa (big.MaxPrec bits).
	MaxDigits uint64 = 1_000_000_000

	// SplitLeafThreshold is the index range below which the binary splitting
	// calculator stops spawning goroutines and recurses sequentially.
	SplitLeafThreshold = 256

	// CalibrationDigits is the digit count used for schedule calibration
	// runs. It is large enough for the schedules to differ measurably while
	// keeping a full calibration under a minute on common hardware.
	CalibrationDigits = 20_000
)

// ─────────────────────────────────────────────────────────────────────────────
// Progress Reporting Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// ProgressReportThreshold is the minimum progress change (0.0 to 1.0) required
	// before a new progress update is sent. This prevents excessive UI updates
	// that could slow down calculations.
	ProgressReportThreshold = 0.01
)
