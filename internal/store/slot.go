// Package store persists the latest optimization result and portfolio in an external key-value slot.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/quantafolio/pkg/config"
	"github.com/wonny/quantafolio/pkg/database"
	"github.com/wonny/quantafolio/pkg/redis"
	"github.com/wonny/quantafolio/pkg/sqlite"
)

// Slot is a durable string-keyed store of raw bytes.
// Last writer wins; there are no transactions.
type Slot interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var (
	_ Slot = (*sqlite.DB)(nil)
	_ Slot = (*redis.KV)(nil)
	_ Slot = (*database.KV)(nil)
	_ Slot = (*MemorySlot)(nil)
)

// Open creates the slot selected by cfg.Store.Driver.
// The returned close func releases the backend connection.
func Open(ctx context.Context, cfg *config.Config) (Slot, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		db, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, db.Close, nil

	case config.StoreRedis:
		client, err := redis.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return redis.NewKV(client, cfg.Store.Prefix), client.Close, nil

	case config.StorePostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		kv, err := database.NewKV(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return kv, func() error { db.Close(); return nil }, nil

	case config.StoreMemory:
		return NewMemorySlot(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// MemorySlot is an in-process Slot for tests and one-shot runs
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemorySlot creates an empty memory slot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

func (m *MemorySlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemorySlot) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
