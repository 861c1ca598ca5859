package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var koreanCode = regexp.MustCompile(`^\d{6}$`)

// ParseTickers splits "AAPL, GOOGL,MSFT" into trimmed, non-empty tickers
func ParseTickers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseWeights splits "0.4,0.6" into numbers; unparseable and non-finite entries are skipped
func ParseWeights(s string) []float64 {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// EqualWeights returns n weights of 1/n
func EqualWeights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0 / float64(n)
	}
	return out
}

// IsKoreanTicker reports whether ticker is a KRX code (bare 6 digits or .KS/.KQ)
func IsKoreanTicker(ticker string) bool {
	return koreanCode.MatchString(ticker) ||
		strings.HasSuffix(ticker, ".KS") ||
		strings.HasSuffix(ticker, ".KQ")
}

// NormalizeKoreanTicker appends .KS to a bare 6-digit code
func NormalizeKoreanTicker(ticker string) string {
	if koreanCode.MatchString(ticker) {
		return ticker + ".KS"
	}
	return ticker
}

// Risk levels
const (
	RiskAggressive   = "aggressive"
	RiskBalanced     = "balanced"
	RiskConservative = "conservative"
)

// RiskLevel buckets a risk factor in [0, 1]
func RiskLevel(riskFactor float64) string {
	switch {
	case riskFactor < 0.3:
		return RiskAggressive
	case riskFactor < 0.7:
		return RiskBalanced
	default:
		return RiskConservative
	}
}

// SharpeRating describes a Sharpe ratio in words
func SharpeRating(sharpe float64) string {
	switch {
	case sharpe < 0:
		return "very low"
	case sharpe < 0.5:
		return "low"
	case sharpe < 1.0:
		return "moderate"
	case sharpe < 2.0:
		return "good"
	default:
		return "very good"
	}
}
