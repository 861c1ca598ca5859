// Package dispatcher sends an optimization request to an ordered list of backends.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/validation"
	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
	"github.com/wonny/quantafolio/pkg/metrics"
)

var (
	// ErrAllTargetsFailed matches *AllTargetsFailedError
	ErrAllTargetsFailed = errors.New("all optimization targets failed")
	// ErrTimeout marks an attempt that exceeded its per-method deadline
	ErrTimeout = errors.New("optimization request timed out")
	// ErrNoTargets is returned for an empty target list
	ErrNoTargets = errors.New("no optimization targets configured")
)

// Attempt is one target call
type Attempt struct {
	Target   string
	Err      error
	Duration time.Duration
}

// AllTargetsFailedError reports every attempt made
type AllTargetsFailedError struct {
	Attempts []Attempt
	LastErr  error
}

func (e *AllTargetsFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Target, a.Err))
	}
	return fmt.Sprintf("%s (%s)", ErrAllTargetsFailed.Error(), strings.Join(parts, "; "))
}

func (e *AllTargetsFailedError) Is(target error) bool {
	return target == ErrAllTargetsFailed
}

func (e *AllTargetsFailedError) Unwrap() error {
	return e.LastErr
}

// BackendError is a response the backend marked as failed
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 && (e.StatusCode < 200 || e.StatusCode > 299) {
		return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

// Timeouts holds per-method attempt deadlines
type Timeouts struct {
	Quantum   time.Duration
	Classical time.Duration
}

// For returns the deadline for method
func (t Timeouts) For(method contracts.Method) time.Duration {
	if method.IsHeavy() {
		return t.Quantum
	}
	return t.Classical
}

// Dispatcher tries targets in order until one returns a successful body
// ⭐ 각 타겟은 정확히 한 번만 시도 (백오프 없음)
type Dispatcher struct {
	client   *httputil.Client
	logger   *logger.Logger
	timeouts Timeouts
	metrics  *metrics.Recorder
}

// New creates a dispatcher
func New(client *httputil.Client, log *logger.Logger, timeouts Timeouts) *Dispatcher {
	return &Dispatcher{
		client:   client.Clone().DisableRetry(),
		logger:   log.WithComponent("dispatcher"),
		timeouts: timeouts,
	}
}

// WithMetrics records attempts on m
func (d *Dispatcher) WithMetrics(m *metrics.Recorder) *Dispatcher {
	d.metrics = m
	return d
}

// Dispatch sends req to each target in order and returns the first successful raw response
func (d *Dispatcher) Dispatch(ctx context.Context, req *contracts.OptimizationRequest, targets []Target) (*contracts.RawOptimizationResponse, error) {
	if err := validation.RequireOptimizable(req.Tickers); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	requestID := uuid.NewString()
	timeout := d.timeouts.For(req.Method)
	log := d.logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"method":     string(req.Method),
		"tickers":    len(req.Tickers),
	})

	failure := &AllTargetsFailedError{}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		raw, err := d.attempt(ctx, requestID, target, req, timeout)
		elapsed := time.Since(start)
		d.metrics.RecordLatency("dispatch", elapsed.Seconds())

		if err == nil {
			raw.Duration = elapsed
			d.metrics.RecordDispatch(target.Name, string(req.Method), metrics.OutcomeSuccess)
			log.WithFields(map[string]interface{}{
				"target":   target.Name,
				"duration": elapsed,
			}).Info("Optimization succeeded")
			return raw, nil
		}

		// caller gave up; no point trying the next target
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		d.metrics.RecordDispatch(target.Name, string(req.Method), outcome(err))
		failure.Attempts = append(failure.Attempts, Attempt{Target: target.Name, Err: err, Duration: elapsed})
		failure.LastErr = err

		log.WithFields(map[string]interface{}{
			"target":   target.Name,
			"url":      target.URL,
			"duration": elapsed,
			"error":    err.Error(),
		}).Warn("Optimization target failed, trying next")
	}

	log.WithField("attempts", len(failure.Attempts)).Error("All optimization targets failed")
	return nil, failure
}

func (d *Dispatcher) attempt(ctx context.Context, requestID string, target Target, req *contracts.OptimizationRequest, timeout time.Duration) (*contracts.RawOptimizationResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	header := http.Header{}
	header.Set("X-Request-ID", requestID)

	resp, err := d.client.PostJSONWithHeader(attemptCtx, target.URL, buildBody(target.Style, req), header)
	if err != nil {
		return nil, classify(attemptCtx, ctx, err)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, classify(attemptCtx, ctx, err)
	}

	if err := checkSuccess(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return &contracts.RawOptimizationResponse{
		Target:     target.Name,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// classify turns an attempt deadline into ErrTimeout
func classify(attemptCtx, parent context.Context, err error) error {
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// resultKeys mark a body as successful when it carries no success flag
var resultKeys = []string{"result", "optimized", "optimized_metrics"}

// checkSuccess applies the success rule to a response body
func checkSuccess(statusCode int, body []byte) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		if statusCode < 200 || statusCode > 299 {
			return &httputil.StatusError{StatusCode: statusCode, Body: body}
		}
		return fmt.Errorf("invalid JSON response: %w", err)
	}

	message, _ := payload["error"].(string)
	if message == "" {
		message, _ = payload["message"].(string)
	}

	if statusCode < 200 || statusCode > 299 {
		if message == "" {
			message = http.StatusText(statusCode)
		}
		return &BackendError{StatusCode: statusCode, Message: message}
	}

	if flag, ok := payload["success"]; ok {
		if success, _ := flag.(bool); success {
			return nil
		}
		if message == "" {
			message = "optimization failed"
		}
		return &BackendError{StatusCode: statusCode, Message: message}
	}

	if errMsg, _ := payload["error"].(string); errMsg != "" {
		return &BackendError{StatusCode: statusCode, Message: errMsg}
	}

	for _, key := range resultKeys {
		if _, ok := payload[key]; ok {
			return nil
		}
	}

	return &BackendError{StatusCode: statusCode, Message: "response carries no result"}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.As(err, new(*BackendError)):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailure
	}
}
