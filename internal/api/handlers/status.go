package handlers

import (
	"net/http"

	"github.com/wonny/quantafolio/internal/prober"
	"github.com/wonny/quantafolio/internal/scheduler"
	"github.com/wonny/quantafolio/pkg/logger"
)

// JobStatsSource reports scheduler job statistics
type JobStatsSource interface {
	GetJobStats() map[string]scheduler.JobStats
}

// StatusHandler reports backend connectivity and periodic job health
type StatusHandler struct {
	monitor *prober.Monitor
	jobs    JobStatsSource
	logger  *logger.Logger
}

// NewStatusHandler creates a new status handler. jobs may be nil.
func NewStatusHandler(monitor *prober.Monitor, jobs JobStatsSource, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		monitor: monitor,
		jobs:    jobs,
		logger:  log,
	}
}

// StatusResponse is the /api/status body
type StatusResponse struct {
	Backend prober.Status                 `json:"backend"`
	Jobs    map[string]scheduler.JobStats `json:"jobs,omitempty"`
}

// Get returns the latest probe status, probing once if nothing has run yet
// GET /api/status
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, ok := h.monitor.Status()
	if !ok {
		status = h.monitor.Check(r.Context())
	}

	resp := StatusResponse{Backend: status}
	if h.jobs != nil {
		resp.Jobs = h.jobs.GetJobStats()
	}

	code := http.StatusOK
	if !status.Reachable {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, resp)
}
