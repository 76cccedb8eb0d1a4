package domain

import "time"

// Principal is what the primary identity provider hands back on a successful
// sign-in. It proves the caller knew the current synthetic secret and nothing
// about membership.
type Principal struct {
	UID       string
	Email     string
	IDToken   string
	ExpiresAt time.Time
}

// Valid reports whether the principal carries a usable, unexpired token.
func (p *Principal) Valid(now time.Time) bool {
	return p != nil && p.IDToken != "" && (p.ExpiresAt.IsZero() || now.Before(p.ExpiresAt))
}
