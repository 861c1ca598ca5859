package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wonny/quantafolio/internal/currency"
	"github.com/wonny/quantafolio/internal/dispatcher"
	"github.com/wonny/quantafolio/internal/external/naver"
	"github.com/wonny/quantafolio/internal/normalizer"
	"github.com/wonny/quantafolio/internal/prober"
	"github.com/wonny/quantafolio/internal/scheduler"
	"github.com/wonny/quantafolio/internal/scheduler/jobs"
	"github.com/wonny/quantafolio/internal/settings"
	"github.com/wonny/quantafolio/internal/stocks"
	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/internal/workflow"
	"github.com/wonny/quantafolio/pkg/config"
	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
	"github.com/wonny/quantafolio/pkg/metrics"
)

// app holds every wired component. Commands build one and close it on exit.
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Recorder

	closeSlot func() error

	results    *store.ResultStore
	portfolios *store.PortfolioStore
	settings   *settings.Provider

	prober     *prober.Prober
	monitor    *prober.Monitor
	dispatcher *dispatcher.Dispatcher
	optimizer  *workflow.Optimizer

	currency *currency.Client
	stocks   *stocks.Client
}

func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.New()
	}

	// 3. Open the key-value slot
	slot, closeSlot, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// 4. HTTP clients
	httpClient := httputil.New(cfg, log)

	policy := prober.PolicyLenient
	if cfg.Backend.ProbeStrict {
		policy = prober.PolicyStrict
	}
	p := prober.New(httpClient, log, policy).WithMetrics(rec)

	a := &app{
		cfg:        cfg,
		log:        log,
		metrics:    rec,
		closeSlot:  closeSlot,
		results:    store.NewResultStore(slot, log).WithMetrics(rec),
		portfolios: store.NewPortfolioStore(slot, log),
		settings:   settings.NewProvider(ctx, slot, log),
		prober:     p,
		monitor:    prober.NewMonitor(p, cfg.Backend.HealthURLs, cfg.Backend.ProbeTimeout),
		dispatcher: dispatcher.New(httpClient, log, dispatcher.Timeouts{
			Quantum:   cfg.Backend.QuantumTimeout,
			Classical: cfg.Backend.ClassicalTimeout,
		}).WithMetrics(rec),
		currency: currency.NewClient(
			httpClient,
			naver.NewClient(httpClient, log, cfg.Naver.BaseURL),
			cfg.Backend.GatewayURL,
			log,
		),
		stocks: stocks.NewClient(httpClient, cfg.Backend.GatewayURL, cfg.Backend.SearchTimeout, stocks.DefaultInterval, log),
	}

	// 5. Optimization workflow
	a.optimizer = workflow.New(workflow.Deps{
		Prober:       a.prober,
		Dispatcher:   a.dispatcher,
		Normalizer:   normalizer.New(log),
		Results:      a.results,
		Portfolios:   a.portfolios,
		Settings:     a.settings,
		Metrics:      rec,
		Logger:       log,
		HealthURLs:   cfg.Backend.HealthURLs,
		ProbeTimeout: cfg.Backend.ProbeTimeout,
		Targets:      dispatcher.TargetsFromConfig(cfg.Backend.Targets),
	})

	return a, nil
}

// Close releases the store
func (a *app) Close() {
	if a.closeSlot == nil {
		return
	}
	if err := a.closeSlot(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
}

// newScheduler registers the periodic jobs without starting them
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	// a full probe sweep must fit inside one run
	sweep := a.cfg.Backend.ProbeTimeout * time.Duration(len(a.cfg.Backend.HealthURLs)+1)
	sched := scheduler.New(a.log).WithJobTimeout(max(sweep, 30*time.Second))

	if err := sched.AddJob(jobs.NewConnectivityJob(a.monitor, a.cfg.Backend.ProbeInterval, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewExchangeRateJob(a.currency, a.cfg.Backend.RateRefreshInterval, a.log)); err != nil {
		return nil, err
	}

	// 연결 상태 변화 로그
	a.monitor.Subscribe(func(s prober.Status) {
		entry := a.log.WithField("url", s.URL)
		if s.Reachable {
			entry.Info("Backend reachable")
		} else {
			entry.WithField("error", s.ErrorMessage()).Warn("Backend unreachable")
		}
	})

	return sched, nil
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
