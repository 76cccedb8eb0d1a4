// Package session keeps the portal's single expiring session record in a
// key-value store.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

// RecordKey is the fixed key the record is stored under.
const RecordKey = "hoa_session"

// record is the persisted shape.
type record struct {
	Phone  string `json:"phone"`
	Expiry int64  `json:"expiry"`
}

// Store implements ports.SessionStore over a ports.KeyValueStore.
type Store struct {
	kv  ports.KeyValueStore
	key string
	now func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a session store. scope namespaces the fixed record key so
// several devices can share one backing store; an empty scope uses the bare
// key.
func NewStore(kv ports.KeyValueStore, scope string, opts ...Option) *Store {
	key := RecordKey
	if scope != "" {
		key = scope + ":" + RecordKey
	}
	s := &Store{kv: kv, key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes a record for phone that expires after ttl.
func (s *Store) Save(ctx context.Context, phone string, ttl time.Duration) (domain.SessionRecord, error) {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	rec := domain.SessionRecord{
		Phone:     domain.NormalizePhone(phone),
		ExpiresAt: s.now().Add(ttl),
	}
	raw, err := json.Marshal(record{Phone: rec.Phone, Expiry: rec.ExpiresAtMillis()})
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw), ttl); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("save session: %w", err)
	}
	return rec, nil
}

// Load returns the stored record, or nil if none is usable.
func (s *Store) Load(ctx context.Context) (*domain.SessionRecord, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil || r.Phone == "" {
		return nil, s.Clear(ctx)
	}

	rec := &domain.SessionRecord{
		Phone:     r.Phone,
		ExpiresAt: time.UnixMilli(r.Expiry),
	}
	if rec.Expired(s.now()) {
		return nil, s.Clear(ctx)
	}
	return rec, nil
}

// Clear removes the record.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
