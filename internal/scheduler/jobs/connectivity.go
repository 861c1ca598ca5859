package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantafolio/internal/prober"
	"github.com/wonny/quantafolio/pkg/logger"
)

// ConnectivityJob re-probes the backend health URLs and publishes the status through the monitor
type ConnectivityJob struct {
	monitor  *prober.Monitor
	interval time.Duration
	logger   *logger.Logger
}

// NewConnectivityJob creates a connectivity monitor job
func NewConnectivityJob(monitor *prober.Monitor, interval time.Duration, log *logger.Logger) *ConnectivityJob {
	return &ConnectivityJob{
		monitor:  monitor,
		interval: interval,
		logger:   log.WithComponent("connectivity_job"),
	}
}

// Name returns the job name
func (j *ConnectivityJob) Name() string {
	return "connectivity_monitor"
}

// Schedule returns the cron schedule (PROBE_INTERVAL)
func (j *ConnectivityJob) Schedule() string {
	return every(j.interval)
}

// Run probes once. An unreachable backend is reported as a failed run.
func (j *ConnectivityJob) Run(ctx context.Context) error {
	status := j.monitor.Check(ctx)
	if !status.Reachable {
		return fmt.Errorf("backend unreachable: %s", status.ErrorMessage())
	}

	j.logger.WithField("url", status.URL).Debug("Backend reachable")
	return nil
}

// every renders an @every spec, never faster than once a second
func every(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return "@every " + d.String()
}
