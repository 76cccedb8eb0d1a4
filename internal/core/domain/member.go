package domain

import (
	"strings"
	"time"
)

// Membership status values reported by the directory. The directory stores
// free text; these are the values the portal reacts to.
const (
	MemberStatusActive  = "Active"
	MemberStatusExpired = "Expired"
	MemberStatusPaused  = "Paused"
)

// profileDateLayout is the ISO date format the directory uses for start and
// expiration dates.
const profileDateLayout = "2006-01-02"

// MemberProfile is an immutable snapshot of a directory record. It is fetched
// wholesale on every login and session restore and never patched in place.
type MemberProfile struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone"`
	Package        string `json:"package"`
	Amount         string `json:"amount"`
	Duration       string `json:"duration"`
	StartDate      string `json:"start_date"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status"`
	PauseDays      string `json:"pause_days"`
}

// FullName joins first and last name.
func (m MemberProfile) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Expiration parses ExpirationDate. ok is false when the directory left the
// field empty or in a format the portal does not understand.
func (m MemberProfile) Expiration() (t time.Time, ok bool) {
	return parseProfileDate(m.ExpirationDate)
}

// DaysUntilExpiration counts whole calendar days from today to the expiration
// date. Negative values mean the membership already lapsed.
func (m MemberProfile) DaysUntilExpiration(now time.Time) (int, bool) {
	exp, ok := m.Expiration()
	if !ok {
		return 0, false
	}
	return daysBetween(startOfDay(now), exp), true
}

func parseProfileDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Sheets sometimes hands back full timestamps for date cells.
	if len(s) > len(profileDateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return startOfDay(t), true
		}
		s = s[:len(profileDateLayout)]
	}
	t, err := time.Parse(profileDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(startOfDay(to).Sub(startOfDay(from)).Hours() / 24)
}
