package domain

import "time"

// DefaultSessionTTL is the lifetime of the single session class the portal
// issues.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionRecord is the locally persisted proof of a previous login. It says
// who the device belongs to, not what the member's current state is, so it
// must be revalidated against the directory before it is trusted.
type SessionRecord struct {
	Phone     string
	ExpiresAt time.Time
}

// ExpiresAtMillis returns the expiry as epoch milliseconds, the unit the
// record is persisted in.
func (s SessionRecord) ExpiresAtMillis() int64 {
	return s.ExpiresAt.UnixMilli()
}

// Expired reports whether now is past the record's expiry.
func (s SessionRecord) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
