package domain

import "time"

// AuthEventKind names what the reconciler was doing when the event was
// recorded.
type AuthEventKind string

const (
	EventLogin      AuthEventKind = "login"
	EventSetup      AuthEventKind = "setup"
	EventReset      AuthEventKind = "reset"
	EventRestore    AuthEventKind = "restore"
	EventLogout     AuthEventKind = "logout"
	EventDivergence AuthEventKind = "primary_divergence"
)

// AuthEvent is an audit entry for one reconciler decision. Phone is the
// normalized number; stores must pseudonymise it before persisting.
type AuthEvent struct {
	ID         string
	Kind       AuthEventKind
	Phone      string
	Outcome    string
	Path       AuthPath
	Primary    string
	Directory  string
	OccurredAt time.Time
}
