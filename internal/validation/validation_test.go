package validation

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantafolio/internal/contracts"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tickers []string
		weights []float64
		wantErr error
	}{
		{"valid pair", []string{"AAPL", "GOOGL"}, []float64{0.5, 0.5}, nil},
		{"single full weight", []string{"AAPL"}, []float64{1.0}, nil},
		{"within tolerance", []string{"AAPL", "GOOGL"}, []float64{0.5, 0.509}, nil},
		{"empty", nil, nil, ErrEmptyTickerList},
		{"count mismatch", []string{"AAPL", "GOOGL"}, []float64{0.5, 0.3, 0.2}, ErrCountMismatch},
		{"sum too high", []string{"AAPL", "GOOGL"}, []float64{0.6, 0.6}, ErrWeightSumInvalid},
		{"sum too low", []string{"AAPL", "GOOGL"}, []float64{0.3, 0.3}, ErrWeightSumInvalid},
		{"NaN weight", []string{"AAPL", "GOOGL"}, []float64{math.NaN(), 0.5}, ErrWeightSumInvalid},
		{"opposite infinities", []string{"AAPL", "GOOGL"}, []float64{math.Inf(1), math.Inf(-1)}, ErrWeightSumInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.tickers, tt.weights)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestValidate_WeightSumMessage(t *testing.T) {
	err := Validate([]string{"AAPL", "GOOGL"}, []float64{0.3, 0.3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0.6000")
}

func TestValidate_DoesNotMutate(t *testing.T) {
	tickers := []string{"AAPL", "GOOGL"}
	weights := []float64{0.4, 0.6}

	_ = Validate(tickers, weights)
	assert.Equal(t, []string{"AAPL", "GOOGL"}, tickers)
	assert.Equal(t, []float64{0.4, 0.6}, weights)
}

func TestRequireOptimizable(t *testing.T) {
	assert.NoError(t, RequireOptimizable([]string{"A", "B"}))

	err := RequireOptimizable([]string{"A"})
	assert.True(t, errors.Is(err, ErrTooFewTickers))
}

func TestValidateRequest_Defaults(t *testing.T) {
	req := &contracts.OptimizationRequest{
		Tickers:        []string{"AAPL", "GOOGL"},
		InitialWeights: []float64{0.5, 0.5},
	}

	require.NoError(t, ValidateRequest(req))
	assert.Equal(t, contracts.MethodQuantum, req.Method)
	assert.Equal(t, contracts.Period1Year, req.Period)
	assert.Equal(t, 1, req.Reps)
	assert.Equal(t, 0.0, req.RiskFactor)
}

func TestValidateRequest_Fields(t *testing.T) {
	base := func() *contracts.OptimizationRequest {
		return &contracts.OptimizationRequest{
			Tickers:        []string{"AAPL", "GOOGL"},
			InitialWeights: []float64{0.5, 0.5},
			RiskFactor:     0.5,
			Method:         contracts.MethodClassical,
			Period:         contracts.Period3Months,
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *contracts.OptimizationRequest)
		wantErr error
		field   string
	}{
		{"ok", func(r *contracts.OptimizationRequest) {}, nil, ""},
		{"risk too high", func(r *contracts.OptimizationRequest) { r.RiskFactor = 1.5 }, ErrInvalidField, "risk_factor"},
		{"bad method", func(r *contracts.OptimizationRequest) { r.Method = "annealing" }, ErrInvalidField, "method"},
		{"bad period", func(r *contracts.OptimizationRequest) { r.Period = "10y" }, ErrInvalidField, "period"},
		{"empty", func(r *contracts.OptimizationRequest) { r.Tickers = nil; r.InitialWeights = nil }, ErrEmptyTickerList, "tickers"},
		{"mismatch", func(r *contracts.OptimizationRequest) { r.InitialWeights = []float64{1} }, ErrCountMismatch, "initial_weights"},
		{"too many", func(r *contracts.OptimizationRequest) {
			r.Tickers = make([]string, 21)
			r.InitialWeights = make([]float64, 21)
			for i := range r.Tickers {
				r.Tickers[i] = fmt.Sprintf("T%d", i)
				r.InitialWeights[i] = 1.0 / 21
			}
		}, ErrTooManyTickers, "tickers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)

			err := ValidateRequest(req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
