package domain

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// PinLength is the exact number of decimal digits in a member PIN.
	PinLength = 4
	// MinPhoneDigits is the shortest phone number the portal accepts.
	MinPhoneDigits = 10
)

// phoneSeparators are the characters stripped from a phone number before it
// is used as a lookup key or a hash salt.
const phoneSeparators = "-()"

// NormalizePhone strips whitespace, hyphens and parentheses. The same
// normalization must be applied everywhere a phone is used as a salt or key,
// otherwise one PIN hashes to different digests.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(phoneSeparators, r) {
			return -1
		}
		return r
	}, phone)
}

// ValidatePhone checks the normalized phone is all digits and long enough.
func ValidatePhone(phone string) error {
	n := NormalizePhone(phone)
	if len(n) < MinPhoneDigits || !allDigits(n) {
		return fmt.Errorf("%w: please enter a valid phone number", ErrValidation)
	}
	return nil
}

// ValidatePin checks the PIN is exactly PinLength decimal digits.
func ValidatePin(pin string) error {
	if len(pin) != PinLength || !allDigits(pin) {
		return fmt.Errorf("%w: PIN must be exactly %d digits", ErrValidation, PinLength)
	}
	return nil
}

// MaskPhone keeps the last four digits for logs.
func MaskPhone(phone string) string {
	n := NormalizePhone(phone)
	if len(n) <= 4 {
		return strings.Repeat("*", len(n))
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
