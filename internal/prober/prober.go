// Package prober checks whether any optimization backend is reachable before dispatch.
package prober

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/quantafolio/pkg/httputil"
	"github.com/wonny/quantafolio/pkg/logger"
	"github.com/wonny/quantafolio/pkg/metrics"
)

// Policy decides which health responses count as reachable
type Policy int

const (
	// PolicyLenient accepts 2xx, or any status whose body is valid JSON
	PolicyLenient Policy = iota
	// PolicyStrict accepts 2xx only
	PolicyStrict
)

// ErrNoHealthURLs is returned when Probe is given nothing to check
var ErrNoHealthURLs = errors.New("no health urls configured")

// Status is the outcome of one probe sweep.
// Reachable with URL set, or unreachable with LastErr set.
type Status struct {
	Reachable bool      `json:"reachable"`
	URL       string    `json:"url,omitempty"`
	LastErr   error     `json:"-"`
	CheckedAt time.Time `json:"checked_at"`
}

// ErrorMessage returns LastErr as a string, or "" when reachable
func (s Status) ErrorMessage() string {
	if s.LastErr == nil {
		return ""
	}
	return s.LastErr.Error()
}

// MarshalJSON includes the last error message
func (s Status) MarshalJSON() ([]byte, error) {
	type alias Status
	return json.Marshal(struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias(s), s.ErrorMessage()})
}

// ConnectivityError means no backend answered; the user may retry
type ConnectivityError struct {
	URLs    []string
	LastErr error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("backend unreachable (%d urls tried): %v", len(e.URLs), e.LastErr)
}

func (e *ConnectivityError) Unwrap() error {
	return e.LastErr
}

// Prober probes health URLs in order
type Prober struct {
	client  *httputil.Client
	logger  *logger.Logger
	policy  Policy
	metrics *metrics.Recorder
}

// New creates a prober. Retries are disabled on the client since every URL
// gets exactly one attempt.
func New(client *httputil.Client, log *logger.Logger, policy Policy) *Prober {
	return &Prober{
		client: client.Clone().DisableRetry(),
		logger: log.WithComponent("prober"),
		policy: policy,
	}
}

// WithMetrics records probe outcomes on m
func (p *Prober) WithMetrics(m *metrics.Recorder) *Prober {
	p.metrics = m
	return p
}

// Probe tries urls in order and returns on the first healthy one.
// Each attempt gets its own timeout; a failed attempt moves on to the next url.
func (p *Prober) Probe(ctx context.Context, urls []string, timeout time.Duration) Status {
	status := p.probe(ctx, urls, timeout)
	p.metrics.RecordProbe(status.Reachable)
	return status
}

func (p *Prober) probe(ctx context.Context, urls []string, timeout time.Duration) Status {
	if len(urls) == 0 {
		return Status{LastErr: ErrNoHealthURLs, CheckedAt: time.Now()}
	}

	var lastErr error
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return Status{LastErr: err, CheckedAt: time.Now()}
		}

		err := p.check(ctx, url, timeout)
		if err == nil {
			p.logger.WithField("url", url).Debug("Backend reachable")
			return Status{Reachable: true, URL: url, CheckedAt: time.Now()}
		}

		lastErr = err
		p.logger.WithFields(map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		}).Debug("Health check failed")
	}

	p.logger.WithField("urls", len(urls)).Warn("No backend reachable")
	return Status{LastErr: lastErr, CheckedAt: time.Now()}
}

func (p *Prober) check(ctx context.Context, url string, timeout time.Duration) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.Get(attemptCtx, url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// a JSON error page still proves a live backend
	if p.policy == PolicyLenient && json.Valid(body) && len(body) > 0 {
		return nil
	}

	return &httputil.StatusError{StatusCode: resp.StatusCode, Body: body}
}

// Require probes and converts an unreachable status into a *ConnectivityError
func (p *Prober) Require(ctx context.Context, urls []string, timeout time.Duration) (Status, error) {
	status := p.Probe(ctx, urls, timeout)
	if !status.Reachable {
		return status, &ConnectivityError{URLs: urls, LastErr: status.LastErr}
	}
	return status, nil
}
