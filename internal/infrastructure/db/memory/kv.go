// Package memory provides an in-process key-value store for development
// and single-instance deployments without Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

type entry struct {
	value   string
	expires time.Time
}

// KeyValueStore implements ports.KeyValueStore in memory. Expired entries
// are dropped lazily on read and in bulk by Sweep.
type KeyValueStore struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

var _ ports.KeyValueStore = (*KeyValueStore)(nil)

func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{data: make(map[string]entry), now: time.Now}
}

func (s *KeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.mu.Lock()
		if cur, still := s.data[key]; still && cur == e {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *KeyValueStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

func (s *KeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *KeyValueStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, e := range s.data {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(s.data, key)
			n++
		}
	}
	return n
}
