package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
)

// Recorder records workflow metrics using Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	dispatchTotal *prometheus.CounterVec
	probeTotal    *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
	backendUp     prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a recorder with its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		dispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quantafolio",
				Name:      "dispatch_attempts_total",
				Help:      "Optimization dispatch attempts by target and outcome",
			},
			[]string{"target", "method", "outcome"},
		),
		probeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quantafolio",
				Name:      "probe_total",
				Help:      "Connectivity probes by outcome",
			},
			[]string{"outcome"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quantafolio",
				Name:      "store_errors_total",
				Help:      "Result store errors by operation",
			},
			[]string{"op"},
		),
		backendUp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "quantafolio",
				Name:      "backend_up",
				Help:      "1 if the last connectivity probe succeeded",
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "quantafolio",
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
	}
}

// RecordDispatch records one dispatch attempt
func (r *Recorder) RecordDispatch(target, method, outcome string) {
	if r == nil {
		return
	}
	r.dispatchTotal.WithLabelValues(target, method, outcome).Inc()
}

// RecordProbe records a probe result and updates backend_up
func (r *Recorder) RecordProbe(reachable bool) {
	if r == nil {
		return
	}
	if reachable {
		r.probeTotal.WithLabelValues(OutcomeSuccess).Inc()
		r.backendUp.Set(1)
		return
	}
	r.probeTotal.WithLabelValues(OutcomeFailure).Inc()
	r.backendUp.Set(0)
}

// RecordStoreError records a storage failure
func (r *Recorder) RecordStoreError(op string) {
	if r == nil {
		return
	}
	r.storeErrors.WithLabelValues(op).Inc()
}

// RecordLatency records operation latency in seconds
func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Registry exposes the underlying registry (tests, custom collectors)
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
