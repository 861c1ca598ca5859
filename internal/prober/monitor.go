package prober

import (
	"context"
	"sync"
	"time"
)

// Monitor keeps the latest probe status and notifies subscribers on change
type Monitor struct {
	prober  *Prober
	urls    []string
	timeout time.Duration

	mu          sync.RWMutex
	status      Status
	checked     bool
	subscribers []func(Status)
}

// NewMonitor creates a monitor over urls
func NewMonitor(p *Prober, urls []string, timeout time.Duration) *Monitor {
	return &Monitor{
		prober:  p,
		urls:    urls,
		timeout: timeout,
	}
}

// Check runs one probe sweep and stores the result.
// Subscribers are called only when reachability flips (or on the first check).
func (m *Monitor) Check(ctx context.Context) Status {
	status := m.prober.Probe(ctx, m.urls, m.timeout)

	m.mu.Lock()
	changed := !m.checked || m.status.Reachable != status.Reachable
	m.status = status
	m.checked = true
	subs := append([]func(Status){}, m.subscribers...)
	m.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(status)
		}
	}
	return status
}

// Status returns the latest status and whether any check has run
func (m *Monitor) Status() (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.checked
}

// Subscribe registers fn for reachability changes
func (m *Monitor) Subscribe(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}
