// Package workflow runs one optimization end to end: build, validate, probe, dispatch, normalize, save.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/dispatcher"
	"github.com/wonny/quantafolio/internal/normalizer"
	"github.com/wonny/quantafolio/internal/prober"
	"github.com/wonny/quantafolio/internal/settings"
	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/internal/validation"
	"github.com/wonny/quantafolio/pkg/logger"
	"github.com/wonny/quantafolio/pkg/metrics"
)

// OpOptimize is the guard name for optimization runs
const OpOptimize = "optimize"

// DefaultRiskFactor is used when the caller does not pick one
const DefaultRiskFactor = 0.5

// Options is one user-triggered optimization
type Options struct {
	// UsePortfolio builds the request from the saved portfolio when it holds >= 2 positions
	UsePortfolio bool

	Tickers    []string
	Weights    []float64 // empty means equal weights
	RiskFactor float64
	Method     contracts.Method
	Period     contracts.Period
	Precision  int
	Reps       int
}

// Deps are the collaborators an Optimizer needs
type Deps struct {
	Prober     *prober.Prober
	Dispatcher *dispatcher.Dispatcher
	Normalizer *normalizer.Normalizer
	Results    *store.ResultStore
	Portfolios *store.PortfolioStore
	Settings   *settings.Provider
	Guard      *Guard
	Metrics    *metrics.Recorder
	Logger     *logger.Logger

	HealthURLs   []string
	ProbeTimeout time.Duration
	Targets      []dispatcher.Target
}

// Optimizer runs the optimization workflow
// ⭐ SSOT: 최적화 흐름은 여기서만 조립
type Optimizer struct {
	deps   Deps
	logger *logger.Logger
}

// New creates an optimizer. A nil Guard gets a private one.
func New(deps Deps) *Optimizer {
	if deps.Guard == nil {
		deps.Guard = NewGuard()
	}
	return &Optimizer{
		deps:   deps,
		logger: deps.Logger.WithComponent("optimizer"),
	}
}

// Run executes one optimization. A second Run while one is in flight returns ErrInFlight
// without touching the network or the store.
// When saving fails the normalized result is still returned alongside the error.
func (o *Optimizer) Run(ctx context.Context, opts Options) (*contracts.CanonicalOptimizationResult, error) {
	release, ok := o.deps.Guard.TryAcquire(OpOptimize)
	if !ok {
		return nil, ErrInFlight
	}
	defer release()

	start := time.Now()
	defer func() {
		o.deps.Metrics.RecordLatency(OpOptimize, time.Since(start).Seconds())
	}()

	req, err := o.BuildRequest(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := validation.RequireOptimizable(req.Tickers); err != nil {
		return nil, err
	}

	log := o.logger.WithFields(map[string]interface{}{
		"tickers": req.Tickers,
		"method":  string(req.Method),
		"period":  string(req.Period),
	})

	status, err := o.deps.Prober.Require(ctx, o.deps.HealthURLs, o.deps.ProbeTimeout)
	if err != nil {
		log.WithError(err).Warn("Backend unreachable, optimization not sent")
		return nil, err
	}
	log.WithField("health_url", status.URL).Debug("Backend reachable")

	raw, err := o.deps.Dispatcher.Dispatch(ctx, req, o.deps.Targets)
	if err != nil {
		return nil, err
	}

	result, err := o.deps.Normalizer.Normalize(raw, req.Tickers, req.InitialWeights)
	if err != nil {
		return nil, fmt.Errorf("normalize %s response: %w", raw.Target, err)
	}
	if result.Method == "" {
		result.Method = req.Method
	}
	result.Input = req.Input()

	if err := o.deps.Results.Save(ctx, result); err != nil {
		log.WithError(err).Error("Optimization result not saved")
		return result, err
	}

	log.WithFields(map[string]interface{}{
		"target":   raw.Target,
		"warnings": len(result.Warnings),
	}).Info("Optimization completed")

	return result, nil
}

// BuildRequest turns options plus saved state into a request. It does not validate.
func (o *Optimizer) BuildRequest(ctx context.Context, opts Options) (*contracts.OptimizationRequest, error) {
	req := &contracts.OptimizationRequest{
		RiskFactor: opts.RiskFactor,
		Method:     opts.Method,
		Period:     opts.Period,
		Precision:  opts.Precision,
		Reps:       opts.Reps,
	}
	if o.deps.Settings != nil {
		req.AutoSave = o.deps.Settings.Get().AutoSave
	}

	if opts.UsePortfolio && o.deps.Portfolios != nil {
		if p, ok := o.deps.Portfolios.Load(ctx); ok && len(p.Held()) >= validation.MinOptimizeTickers {
			tickers, weights, err := p.ShareWeights()
			if err != nil {
				return nil, &validation.Error{Kind: validation.ErrWeightSumInvalid, Field: "portfolio", Message: err.Error()}
			}
			req.Tickers = tickers
			req.InitialWeights = weights
			return req, nil
		}
		o.logger.Debug("Saved portfolio has fewer than 2 holdings, using explicit tickers")
	}

	tickers := make([]string, 0, len(opts.Tickers))
	for _, t := range opts.Tickers {
		tickers = append(tickers, validation.NormalizeKoreanTicker(t))
	}
	req.Tickers = tickers

	if len(opts.Weights) > 0 {
		req.InitialWeights = append([]float64(nil), opts.Weights...)
	} else {
		req.InitialWeights = validation.EqualWeights(len(tickers))
	}

	return req, nil
}
