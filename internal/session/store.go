// Package session owns the bearer credential used by every API request.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore persists the credential outside the process.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context) error
}

// MemoryStore keeps the credential for the lifetime of the process only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// RedisStore keeps the credential under a single Redis key so a console
// restart can resume the session.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: load token: %w", err)
	}
	return token, nil
}

// Save stores the token. A positive ttl expires the key with the credential,
// zero keeps it until deleted and a negative ttl removes it.
func (r *RedisStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	if ttl < 0 {
		return r.Delete(ctx)
	}
	if err := r.client.Set(ctx, r.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: delete token: %w", err)
	}
	return nil
}
