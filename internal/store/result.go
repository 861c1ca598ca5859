package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/pkg/logger"
	"github.com/wonny/quantafolio/pkg/metrics"
)

var (
	// ErrNotFound means nothing has been saved under the key
	ErrNotFound = errors.New("no stored value")
	// ErrCorrupt means the stored bytes are not a value of the expected shape
	ErrCorrupt = errors.New("stored value is corrupt")
)

// ResultStore holds the single most recent optimization result
// ⭐ SSOT: lastOptimizationResult 슬롯은 여기서만 읽고 씀
type ResultStore struct {
	slot    Slot
	logger  *logger.Logger
	metrics *metrics.Recorder

	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(*contracts.CanonicalOptimizationResult)
}

// NewResultStore creates a result store over slot
func NewResultStore(slot Slot, log *logger.Logger) *ResultStore {
	return &ResultStore{
		slot:        slot,
		logger:      log.WithComponent("result_store"),
		subscribers: make(map[int]func(*contracts.CanonicalOptimizationResult)),
	}
}

// WithMetrics counts storage failures on m
func (s *ResultStore) WithMetrics(m *metrics.Recorder) *ResultStore {
	s.metrics = m
	return s
}

// Save overwrites the stored result and notifies subscribers.
// Warnings is omitted when empty, so an empty slice loads back as nil;
// callers should leave it nil when there is nothing to report.
func (s *ResultStore) Save(ctx context.Context, result *contracts.CanonicalOptimizationResult) error {
	if result == nil {
		return fmt.Errorf("save result: result is nil")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := s.slot.Set(ctx, contracts.LastResultKey, data); err != nil {
		s.metrics.RecordStoreError("save")
		return fmt.Errorf("save result: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"method":    string(result.Method),
		"timestamp": result.Timestamp,
	}).Debug("Result saved")

	s.notify(result)
	return nil
}

// Load returns the stored result.
// Missing, unreadable or corrupt data is reported as absent and logged; it never errors.
func (s *ResultStore) Load(ctx context.Context) (*contracts.CanonicalOptimizationResult, bool) {
	result, err := s.LoadStrict(ctx)
	if err == nil {
		return result, true
	}

	if !errors.Is(err, ErrNotFound) {
		s.metrics.RecordStoreError("load")
		s.logger.WithError(err).Warn("Stored optimization result ignored")
	}
	return nil, false
}

// LoadStrict is Load with the reason for absence: ErrNotFound, ErrCorrupt or a backend error
func (s *ResultStore) LoadStrict(ctx context.Context) (*contracts.CanonicalOptimizationResult, error) {
	data, found, err := s.slot.Get(ctx, contracts.LastResultKey)
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return decodeResult(data)
}

// decodeResult rejects JSON that is valid but not result-shaped
func decodeResult(data []byte) (*contracts.CanonicalOptimizationResult, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if _, ok := shape["optimized"]; !ok {
		return nil, fmt.Errorf("%w: missing optimized section", ErrCorrupt)
	}

	var result contracts.CanonicalOptimizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &result, nil
}

// Clear removes the stored result
func (s *ResultStore) Clear(ctx context.Context) error {
	if err := s.slot.Delete(ctx, contracts.LastResultKey); err != nil {
		s.metrics.RecordStoreError("clear")
		return fmt.Errorf("clear result: %w", err)
	}
	return nil
}

// Subscribe registers fn to run after every successful Save.
// The returned func unregisters it.
func (s *ResultStore) Subscribe(fn func(*contracts.CanonicalOptimizationResult)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *ResultStore) notify(result *contracts.CanonicalOptimizationResult) {
	s.mu.RLock()
	subs := make([]func(*contracts.CanonicalOptimizationResult), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(result)
	}
}
