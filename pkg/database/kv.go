package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// KV is a key-value slot table on top of the pool
type KV struct {
	db *DB
}

// NewKV creates the kv_store table if needed
func NewKV(ctx context.Context, db *DB) (*KV, error) {
	if _, err := db.Pool.Exec(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("failed to create kv_store: %w", err)
	}
	return &KV{db: db}, nil
}

// Get returns the value for key; found is false when the key is absent
func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := k.db.Pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value for key
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := k.db.Pool.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (k *KV) Delete(ctx context.Context, key string) error {
	if _, err := k.db.Pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}
