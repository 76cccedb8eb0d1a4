// Package credential derives every secret the portal sends to its two
// identity backends from the member's phone number and PIN.
//
// All functions are pure. Callers validate PIN and phone shape first.
package credential

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// DefaultEmailDomain is appended to the phone to form the primary provider's
// login identifier.
const DefaultEmailDomain = "crossfitlagos.app"

// secretPadding lifts a 4-digit PIN over the primary provider's 6-character
// minimum password length.
const secretPadding = "00"

// Digest returns hex(sha256(pin || normalizedPhone)), the value the directory
// stores and compares against.
func Digest(pin, phone string) string {
	sum := sha256.Sum256([]byte(pin + domain.NormalizePhone(phone)))
	return hex.EncodeToString(sum[:])
}

// Synthesizer builds the primary provider's email/password pair.
type Synthesizer struct {
	emailDomain string
}

// NewSynthesizer returns a Synthesizer for the given email domain. An empty
// domain falls back to DefaultEmailDomain.
func NewSynthesizer(emailDomain string) Synthesizer {
	if emailDomain == "" {
		emailDomain = DefaultEmailDomain
	}
	return Synthesizer{emailDomain: emailDomain}
}

// ID maps a phone to the provider's login identifier.
func (s Synthesizer) ID(phone string) string {
	return domain.NormalizePhone(phone) + "@" + s.emailDomain
}

// Secret maps a PIN to the provider's password.
func (s Synthesizer) Secret(pin string) string {
	return pin + secretPadding
}
