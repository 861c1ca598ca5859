package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/dispatcher"
	"github.com/wonny/quantafolio/internal/normalizer"
	"github.com/wonny/quantafolio/internal/prober"
	"github.com/wonny/quantafolio/internal/validation"
	"github.com/wonny/quantafolio/internal/workflow"
	"github.com/wonny/quantafolio/pkg/logger"
)

// Runner runs one optimization
type Runner interface {
	Run(ctx context.Context, opts workflow.Options) (*contracts.CanonicalOptimizationResult, error)
}

// OptimizeHandler triggers the optimization workflow
type OptimizeHandler struct {
	runner Runner
	logger *logger.Logger
}

// NewOptimizeHandler creates a new optimize handler
func NewOptimizeHandler(runner Runner, log *logger.Logger) *OptimizeHandler {
	return &OptimizeHandler{
		runner: runner,
		logger: log,
	}
}

// OptimizeRequest is the POST /api/optimize body
type OptimizeRequest struct {
	UsePortfolio bool      `json:"usePortfolio"`
	Tickers      []string  `json:"tickers"`
	Weights      []float64 `json:"weights"`
	RiskFactor   *float64  `json:"riskFactor"`
	Method       string    `json:"method"`
	Period       string    `json:"period"`
	Precision    int       `json:"precision"`
	Reps         int       `json:"reps"`
}

// Options converts the body to workflow options
func (req OptimizeRequest) Options() workflow.Options {
	risk := workflow.DefaultRiskFactor
	if req.RiskFactor != nil {
		risk = *req.RiskFactor
	}
	return workflow.Options{
		UsePortfolio: req.UsePortfolio,
		Tickers:      req.Tickers,
		Weights:      req.Weights,
		RiskFactor:   risk,
		Method:       contracts.Method(req.Method),
		Period:       contracts.Period(req.Period),
		Precision:    req.Precision,
		Reps:         req.Reps,
	}
}

// OptimizeResponse carries the result; SaveError is set when it could not be persisted
type OptimizeResponse struct {
	Result    *contracts.CanonicalOptimizationResult `json:"result"`
	SaveError string                                 `json:"saveError,omitempty"`
}

// Optimize runs the workflow synchronously
// POST /api/optimize
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.runner.Run(r.Context(), req.Options())
	if err != nil && result != nil {
		respondJSON(w, http.StatusOK, OptimizeResponse{Result: result, SaveError: err.Error()})
		return
	}
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithError(err).Warn("Optimization failed")
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, OptimizeResponse{Result: result})
}

// StatusFor maps workflow errors to HTTP status codes
func StatusFor(err error) int {
	var validationErr *validation.Error
	var connErr *prober.ConnectivityError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, dispatcher.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, dispatcher.ErrAllTargetsFailed), errors.Is(err, normalizer.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
