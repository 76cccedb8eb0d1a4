package ports

import (
	"context"
	"time"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// KeyValueStore is the device-local persistent storage the portal keeps its
// session record and view snapshot in.
type KeyValueStore interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value; ttl <= 0 means no storage-level expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionStore persists a single SessionRecord.
type SessionStore interface {
	Save(ctx context.Context, phone string, ttl time.Duration) (domain.SessionRecord, error)
	// Load returns nil when no unexpired record exists. Expired or unreadable
	// records are cleared as a side effect.
	Load(ctx context.Context) (*domain.SessionRecord, error)
	Clear(ctx context.Context) error
}
