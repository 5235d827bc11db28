package conversation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores LLM replies keyed by the raw visitor message so
// repeated questions skip the model. Implementations expire entries after a
// configured TTL; lookups are best-effort and never fail a chat request.
type ResponseCache interface {
	Get(ctx context.Context, input string) (string, bool)
	Set(ctx context.Context, input, reply string)
}

const responseCacheKeyPrefix = "chat:cache:"

// RedisResponseCache backs the response cache with Redis so cached replies
// survive restarts and are shared across instances.
type RedisResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisResponseCache(client *redis.Client, ttl time.Duration) *RedisResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisResponseCache{client: client, ttl: ttl}
}

func cacheKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return responseCacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisResponseCache) Get(ctx context.Context, input string) (string, bool) {
	reply, err := c.client.Get(ctx, cacheKey(input)).Result()
	if err != nil {
		// Misses and transport errors look the same to callers.
		return "", false
	}
	return reply, true
}

func (c *RedisResponseCache) Set(ctx context.Context, input, reply string) {
	_ = c.client.Set(ctx, cacheKey(input), reply, c.ttl).Err()
}

// MemoryResponseCache is the in-process fallback when Redis is not
// configured. Entries expire after the TTL and the oldest entry is evicted
// once the capacity is reached.
type MemoryResponseCache struct {
	mu       sync.Mutex
	entries  map[string]memoryCacheEntry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

type memoryCacheEntry struct {
	reply   string
	savedAt time.Time
}

func NewMemoryResponseCache(capacity int, ttl time.Duration) *MemoryResponseCache {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryResponseCache{
		entries:  make(map[string]memoryCacheEntry),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *MemoryResponseCache) Get(_ context.Context, input string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[input]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.savedAt) >= c.ttl {
		delete(c.entries, input)
		return "", false
	}
	return entry.reply, true
}

func (c *MemoryResponseCache) Set(_ context.Context, input, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[input]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[input] = memoryCacheEntry{reply: reply, savedAt: c.now()}
}

func (c *MemoryResponseCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.savedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.savedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
