package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/core/cache"
	rediscache "github.com/pmservice/assistant-service/internal/infrastructure/cache/redis"
)

func setupMiniredis(t *testing.T, prefix string) (*miniredis.Miniredis, cache.Cache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	c, err := rediscache.NewCache(context.Background(), rediscache.Config{
		Host:       mr.Host(),
		Port:       mr.Port(),
		DefaultTTL: time.Minute,
		KeyPrefix:  prefix,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		c.Close()
		mr.Close()
	})

	return mr, c
}

func TestNewCache_ConnectionFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	c, err := rediscache.NewCache(context.Background(), rediscache.Config{Host: host, Port: port})

	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestCache_SetAndGet(t *testing.T) {
	_, c := setupMiniredis(t, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestCache_GetMissingReturnsNil(t *testing.T) {
	_, c := setupMiniredis(t, "")

	got, err := c.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_DefaultTTLAndExpiry(t *testing.T) {
	mr, c := setupMiniredis(t, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_KeyPrefix(t *testing.T) {
	mr, c := setupMiniredis(t, "pm:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:u1", []byte("x"), 0))

	assert.True(t, mr.Exists("pm:session:u1"))
	assert.False(t, mr.Exists("session:u1"))
}

func TestCache_Delete(t *testing.T) {
	_, c := setupMiniredis(t, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	deleted, err := c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCache_Ping(t *testing.T) {
	_, c := setupMiniredis(t, "")
	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewCache_FromURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	ctx := context.Background()

	c, err := rediscache.NewCache(ctx, rediscache.Config{
		URL:       "redis://" + mr.Addr() + "/0",
		Host:      "ignored",
		KeyPrefix: "pm:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Set(ctx, "session:u1", []byte("x"), time.Minute))
	assert.True(t, mr.Exists("pm:session:u1"))
}

func TestNewCache_InvalidURL(t *testing.T) {
	_, err := rediscache.NewCache(context.Background(), rediscache.Config{URL: "not-a-redis-url"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}
