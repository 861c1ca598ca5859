package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KV stores raw values under "<prefix>:<key>" with no expiry
type KV struct {
	client *Client
	prefix string
}

// NewKV creates a key-value view over client
func NewKV(client *Client, prefix string) *KV {
	return &KV{
		client: client,
		prefix: prefix,
	}
}

// Key returns the full Redis key for key
func (k *KV) Key(key string) string {
	if k.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", k.prefix, key)
}

// Get returns the value for key; found is false when the key is absent
func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := k.client.Redis().Get(ctx, k.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set overwrites the value for key
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := k.client.Redis().Set(ctx, k.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.client.Redis().Del(ctx, k.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
