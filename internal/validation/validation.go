// Package validation checks user-entered tickers and weights before any network call.
package validation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/quantafolio/internal/contracts"
)

// MaxTickers is the most tickers a single optimization accepts
const MaxTickers = 20

// MinOptimizeTickers is the fewest tickers a backend will optimize
const MinOptimizeTickers = 2

// Validation error kinds, matched with errors.Is
var (
	ErrEmptyTickerList  = errors.New("empty ticker list")
	ErrCountMismatch    = errors.New("ticker/weight count mismatch")
	ErrWeightSumInvalid = errors.New("weights do not sum to 1.0")
	ErrTooFewTickers    = errors.New("too few tickers")
	ErrTooManyTickers   = errors.New("too many tickers")
	ErrInvalidField     = errors.New("invalid field")
)

// Error is a user-facing validation failure.
// Kind is one of the Err* sentinels above.
type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, field, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validate checks tickers against weights.
// ⭐ 순수 함수: 입력을 수정하지 않음
func Validate(tickers []string, weights []float64) error {
	if len(tickers) == 0 {
		return newError(ErrEmptyTickerList, "tickers", "at least one ticker is required")
	}

	if len(weights) != len(tickers) {
		return newError(ErrCountMismatch, "initial_weights",
			"weight count (%d) does not match ticker count (%d)", len(weights), len(tickers))
	}

	sum := floats.Sum(weights)
	// NaN compares false against any tolerance
	if math.IsNaN(sum) || math.IsInf(sum, 0) || math.Abs(sum-1.0) > contracts.WeightTolerance {
		return newError(ErrWeightSumInvalid, "initial_weights",
			"weights must sum to 1.0 (got %.4f)", sum)
	}

	return nil
}

// RequireOptimizable rejects ticker lists the backends cannot optimize
func RequireOptimizable(tickers []string) error {
	if len(tickers) < MinOptimizeTickers {
		return newError(ErrTooFewTickers, "tickers",
			"at least %d tickers are required for optimization (got %d)", MinOptimizeTickers, len(tickers))
	}
	return nil
}
