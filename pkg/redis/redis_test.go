package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKV_Key(t *testing.T) {
	kv := NewKV(NewFromClient(nil), "quantafolio")
	assert.Equal(t, "quantafolio:theme", kv.Key("theme"))

	bare := NewKV(NewFromClient(nil), "")
	assert.Equal(t, "theme", bare.Key("theme"))
}

func TestKV_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	client := NewFromClient(goredis.NewClient(&goredis.Options{Addr: addr}))
	defer client.Close()

	kv := NewKV(client, "quantafolio-test")
	ctx := context.Background()

	require.NoError(t, kv.Delete(ctx, "k"))

	_, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
	value, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", string(value))

	require.NoError(t, kv.Delete(ctx, "k"))
}
