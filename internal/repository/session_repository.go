package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lamngoc/student-portal/internal/models"
)

// SessionRepository persists session state keyed by an opaque token.
// A nil state with a nil error means the token is unknown or expired.
type SessionRepository interface {
	Save(ctx context.Context, token string, state models.SessionState, ttl time.Duration) error
	Find(ctx context.Context, token string) (*models.SessionState, error)
	Touch(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type memoryEntry struct {
	state     models.SessionState
	expiresAt time.Time
}

// MemorySessionRepository is an in-process store with lazy expiry. It is the
// default backend and the one used in tests.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemorySessionRepository constructs an empty in-memory store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Save(_ context.Context, token string, state models.SessionState, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[token] = memoryEntry{state: state, expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemorySessionRepository) Find(_ context.Context, token string) (*models.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	if r.now().After(entry.expiresAt) {
		delete(r.sessions, token)
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (r *MemorySessionRepository) Touch(_ context.Context, token string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[token]
	if !ok || r.now().After(entry.expiresAt) {
		return nil
	}
	entry.expiresAt = r.now().Add(ttl)
	r.sessions[token] = entry
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

// RedisSessionRepository stores sessions in Redis with native TTLs, for
// deployments where the process is restarted or scaled out.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository constructs a Redis-backed session store.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (r *RedisSessionRepository) Save(ctx context.Context, token string, state models.SessionState, ttl time.Duration) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Find(ctx context.Context, token string) (*models.SessionState, error) {
	raw, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis find session: %w", err)
	}
	var state models.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &state, nil
}

func (r *RedisSessionRepository) Touch(ctx context.Context, token string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, sessionKey(token), ttl).Err(); err != nil {
		return fmt.Errorf("redis touch session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
