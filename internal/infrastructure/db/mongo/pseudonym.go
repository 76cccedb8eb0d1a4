package mongo

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// Pseudonymizer derives stable, keyed identifiers for phone numbers so audit
// records for one member can be correlated without storing the number.
type Pseudonymizer struct {
	key []byte
}

// NewPseudonymizer returns a Pseudonymizer keyed with key. blake2b accepts
// keys up to 64 bytes; longer keys are truncated.
func NewPseudonymizer(key string) *Pseudonymizer {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Pseudonymizer{key: k}
}

// Phone returns the hex blake2b-256 MAC of the normalized phone.
func (p *Pseudonymizer) Phone(phone string) string {
	if phone == "" {
		return ""
	}
	h, err := blake2b.New256(p.key)
	if err != nil {
		// Only reachable with an oversized key, which NewPseudonymizer prevents.
		panic(err)
	}
	h.Write([]byte(domain.NormalizePhone(phone)))
	return hex.EncodeToString(h.Sum(nil))
}
