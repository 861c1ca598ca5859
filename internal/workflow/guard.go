package workflow

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when the same operation is already running
var ErrInFlight = errors.New("operation already in flight")

// Guard allows at most one running instance per operation name
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// TryAcquire claims op. ok is false when op is already held;
// otherwise release must be called exactly once.
func (g *Guard) TryAcquire(op string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[op]; busy {
		return nil, false
	}
	g.inflight[op] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, op)
			g.mu.Unlock()
		})
	}, true
}

// InFlight reports whether op is currently held
func (g *Guard) InFlight(op string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[op]
	return busy
}
