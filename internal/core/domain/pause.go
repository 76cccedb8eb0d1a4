package domain

import (
	"fmt"
	"strings"
	"time"
)

// PauseStatus is the state of a member's most recent pause request.
type PauseStatus string

const (
	PauseNone     PauseStatus = "None"
	PausePending  PauseStatus = "Pending"
	PauseApproved PauseStatus = "Approved"
	PauseRejected PauseStatus = "Rejected"
)

// PauseRestrictionDays is the window before expiration in which pause
// requests are no longer accepted.
const PauseRestrictionDays = 7

// PauseReasons lists the accepted pause reasons.
var PauseReasons = []string{"Travel", "Medical", "Work", "Other"}

// PauseRequest asks the gym to freeze a membership between two dates.
type PauseRequest struct {
	Phone  string
	Name   string
	Start  time.Time
	End    time.Time
	Reason string
}

// ParsePauseStatus maps gateway text onto a PauseStatus, defaulting to None.
func ParsePauseStatus(s string) PauseStatus {
	for _, st := range []PauseStatus{PausePending, PauseApproved, PauseRejected} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st
		}
	}
	return PauseNone
}

// PauseRestricted reports whether the member is too close to expiration to
// request a pause. Unknown expiration dates do not restrict.
func PauseRestricted(profile MemberProfile, now time.Time) bool {
	days, ok := profile.DaysUntilExpiration(now)
	return ok && days <= PauseRestrictionDays
}

// Validate checks the request dates and reason against today.
func (r PauseRequest) Validate(now time.Time) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: please select both start and end dates", ErrValidation)
	}
	today := startOfDay(now)
	if startOfDay(r.Start).Before(today) {
		return fmt.Errorf("%w: start date cannot be in the past", ErrValidation)
	}
	if startOfDay(r.End).Before(startOfDay(r.Start)) {
		return fmt.Errorf("%w: end date must be after the start date", ErrValidation)
	}
	for _, reason := range PauseReasons {
		if r.Reason == reason {
			return nil
		}
	}
	return fmt.Errorf("%w: reason must be one of %s", ErrValidation, strings.Join(PauseReasons, ", "))
}

// Days is the inclusive length of the requested pause.
func (r PauseRequest) Days() int {
	return daysBetween(r.Start, r.End) + 1
}
