package contracts

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// WeightTolerance is how far a full allocation may drift from 1.0
const WeightTolerance = 0.01

// LastResultKey and CurrentPortfolioKey are the persisted slot names
const (
	LastResultKey       = "lastOptimizationResult"
	CurrentPortfolioKey = "currentPortfolio"
)

// PortfolioMetrics describes one side (original or optimized) of a result
type PortfolioMetrics struct {
	Tickers        []string  `json:"tickers"`
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	Risk           float64   `json:"risk"`
	SharpeRatio    float64   `json:"sharpe_ratio"`

	// optional analytics; nil means "not available"
	MaxDrawdown *float64 `json:"max_drawdown,omitempty"`
	Beta        *float64 `json:"beta,omitempty"`
}

// WeightSum returns the sum of Weights
func (m PortfolioMetrics) WeightSum() float64 {
	if len(m.Weights) == 0 {
		return 0
	}
	return floats.Sum(m.Weights)
}

// IsFullAllocation reports whether weights sum to 1.0 within WeightTolerance
func (m PortfolioMetrics) IsFullAllocation() bool {
	return math.Abs(m.WeightSum()-1.0) <= WeightTolerance
}

// Improvement is the backend's original-vs-optimized comparison, in percent
type Improvement struct {
	ReturnImprovement float64  `json:"return_improvement"`
	RiskChange        float64  `json:"risk_change"`
	SharpeImprovement float64  `json:"sharpe_improvement"`
	ScoreImprovement  *float64 `json:"score_improvement,omitempty"`
}

// OptimizationInput is what the user submitted, kept for side-by-side rendering
type OptimizationInput struct {
	Tickers        []string  `json:"tickers"`
	InitialWeights []float64 `json:"initialWeights"`
	RiskFactor     float64   `json:"riskFactor"`
	Period         Period    `json:"period"`
}

// Warning codes
const (
	WarnCountMismatch = "count_mismatch"
	WarnWeightSum     = "weight_sum"
	WarnNonFinite     = "non_finite"
)

// DataQualityWarning flags a suspicious but non-fatal result shape
type DataQualityWarning struct {
	Code    string `json:"code"`
	Section string `json:"section"`
	Message string `json:"message"`
}

// CanonicalOptimizationResult is the single normalized shape produced from any backend variant
// ⭐ SSOT: 분석 화면은 이 구조체만 읽음
type CanonicalOptimizationResult struct {
	Original    PortfolioMetrics `json:"original"`
	Optimized   PortfolioMetrics `json:"optimized"`
	Improvement Improvement      `json:"improvement"`
	Method      Method           `json:"method"`
	Timestamp   string           `json:"timestamp"`

	Input    *OptimizationInput   `json:"input,omitempty"`
	Warnings []DataQualityWarning `json:"warnings,omitempty"`
}

// HasWarnings reports whether normalization flagged anything
func (r *CanonicalOptimizationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Allocation is one ticker's weight before and after optimization
type Allocation struct {
	Ticker    string  `json:"ticker"`
	Original  float64 `json:"original"`
	Optimized float64 `json:"optimized"`
	Change    float64 `json:"change"`
}

// Allocations joins original and optimized weights by ticker, in optimized order
// followed by tickers that only appear in the original.
func (r *CanonicalOptimizationResult) Allocations() []Allocation {
	original := weightsByTicker(r.Original)
	optimized := weightsByTicker(r.Optimized)

	seen := make(map[string]bool)
	var out []Allocation
	add := func(ticker string) {
		if seen[ticker] {
			return
		}
		seen[ticker] = true
		out = append(out, Allocation{
			Ticker:    ticker,
			Original:  original[ticker],
			Optimized: optimized[ticker],
			Change:    optimized[ticker] - original[ticker],
		})
	}

	for _, t := range r.Optimized.Tickers {
		add(t)
	}
	for _, t := range r.Original.Tickers {
		add(t)
	}
	return out
}

func weightsByTicker(m PortfolioMetrics) map[string]float64 {
	out := make(map[string]float64, len(m.Tickers))
	for i, t := range m.Tickers {
		if i < len(m.Weights) {
			out[t] = m.Weights[i]
		}
	}
	return out
}
