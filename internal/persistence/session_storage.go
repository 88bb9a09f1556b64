package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStorage adapts the go-redis client to fiber's Storage interface so
// the session and CSRF middlewares keep their state in Redis. Keys are
// namespaced to keep them apart from other Redis usage.
type SessionStorage struct {
	client *redis.Client
	prefix string
}

// NewSessionStorage builds a Storage over an established Redis connection.
func NewSessionStorage(r *Redis, prefix string) *SessionStorage {
	if prefix == "" {
		prefix = "session:"
	}
	return &SessionStorage{client: r.Client, prefix: prefix}
}

// Get retrieves the value for a key, or nil when absent.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	val, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores a value with the given expiry. Zero expiry means no expiry.
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.client.Set(context.Background(), s.prefix+key, val, exp).Err()
}

// Delete removes a key.
func (s *SessionStorage) Delete(key string) error {
	return s.client.Del(context.Background(), s.prefix+key).Err()
}

// Reset removes every key in this storage's namespace.
func (s *SessionStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the shared client is closed by its owner.
func (s *SessionStorage) Close() error {
	return nil
}
