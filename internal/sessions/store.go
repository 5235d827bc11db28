// Package sessions keeps per-visitor contact context so the scheduler and
// chat responder can default user fields the caller left unset.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserContext is the contact info a visitor shared earlier in the session.
type UserContext struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// Store persists session context keyed by the client session id.
type Store interface {
	Save(ctx context.Context, sessionID string, user UserContext) error
	Get(ctx context.Context, sessionID string) (UserContext, bool, error)
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// RedisStore keeps session context in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("sessions: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, user UserContext) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("sessions: marshal user context: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("sessions: persist user context: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (UserContext, bool, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return UserContext{}, false, nil
		}
		return UserContext{}, false, fmt.Errorf("sessions: load user context: %w", err)
	}
	var user UserContext
	if err := json.Unmarshal(data, &user); err != nil {
		return UserContext{}, false, fmt.Errorf("sessions: decode user context: %w", err)
	}
	return user, true, nil
}

type memoryEntry struct {
	user      UserContext
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when Redis is not configured.
// Expiry is checked lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, user UserContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{user: user, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (UserContext, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return UserContext{}, false, nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return UserContext{}, false, nil
	}
	return entry.user, true, nil
}
