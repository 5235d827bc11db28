package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResponseCacheRoundTrip(t *testing.T) {
	c := NewMemoryResponseCache(4, time.Hour)
	ctx := context.Background()

	_, ok := c.Get(ctx, "hello")
	assert.False(t, ok)

	c.Set(ctx, "hello", "hi there")
	reply, ok := c.Get(ctx, "hello")
	require.True(t, ok)
	assert.Equal(t, "hi there", reply)
}

func TestMemoryResponseCacheExpiry(t *testing.T) {
	c := NewMemoryResponseCache(4, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "hello", "hi there")
	now = now.Add(2 * time.Hour)

	_, ok := c.Get(ctx, "hello")
	assert.False(t, ok)
}

func TestMemoryResponseCacheEvictsOldest(t *testing.T) {
	c := NewMemoryResponseCache(2, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "first", "1")
	now = now.Add(time.Minute)
	c.Set(ctx, "second", "2")
	now = now.Add(time.Minute)
	c.Set(ctx, "third", "3")

	_, ok := c.Get(ctx, "first")
	assert.False(t, ok, "oldest entry should be evicted")

	_, ok = c.Get(ctx, "second")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "third")
	assert.True(t, ok)
}

func TestRedisResponseCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisResponseCache(client, time.Hour)
	ctx := context.Background()

	_, ok := c.Get(ctx, "hello")
	assert.False(t, ok)

	c.Set(ctx, "hello", "hi there")
	reply, ok := c.Get(ctx, "hello")
	require.True(t, ok)
	assert.Equal(t, "hi there", reply)

	mr.FastForward(2 * time.Hour)
	_, ok = c.Get(ctx, "hello")
	assert.False(t, ok)
}
