package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

// KeyValueStore implements ports.KeyValueStore backed by Redis.
// Key format: <prefix>:<device>:<key>
type KeyValueStore struct {
	client redis.Cmdable
	prefix string
}

var _ ports.KeyValueStore = (*KeyValueStore)(nil)

// NewKeyValueStore wraps client. prefix separates the portal's keys from
// anything else sharing the database.
func NewKeyValueStore(client redis.Cmdable, prefix string) *KeyValueStore {
	return &KeyValueStore{client: client, prefix: prefix}
}

// Get returns ok=false when the key does not exist.
func (s *KeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get: %w", err)
	}
	return v, true, nil
}

// Set stores value. A non-positive ttl keeps the key until deleted.
func (s *KeyValueStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KeyValueStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

func (s *KeyValueStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
