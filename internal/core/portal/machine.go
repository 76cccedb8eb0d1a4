package portal

import (
	"errors"
	"fmt"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// State is the screen the portal is showing.
type State string

const (
	StateLoading   State = "LOADING"
	StateLogin     State = "LOGIN"
	StateSetupPin  State = "SETUP_PIN"
	StateDashboard State = "DASHBOARD"
)

// validTransitions defines the allowed view transitions. Staying on LOGIN or
// SETUP_PIN is allowed so failures can be shown in place.
var validTransitions = map[State][]State{
	StateLoading:   {StateLogin, StateDashboard},
	StateLogin:     {StateDashboard, StateSetupPin, StateLogin},
	StateSetupPin:  {StateDashboard, StateLogin, StateSetupPin},
	StateDashboard: {StateLogin, StateLoading},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NoticeKind distinguishes error banners from informational ones.
type NoticeKind string

const (
	NoticeError NoticeKind = "error"
	NoticeInfo  NoticeKind = "info"
)

// Notice is a one-shot message shown above the current screen.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// View is what the UI renders. Phone and IsReset are only meaningful on
// SETUP_PIN; Profile only on DASHBOARD.
type View struct {
	State      State                 `json:"state"`
	Phone      string                `json:"phone,omitempty"`
	IsReset    bool                  `json:"is_reset,omitempty"`
	Profile    *domain.MemberProfile `json:"profile,omitempty"`
	Notice     *Notice               `json:"notice,omitempty"`
	Generation uint64                `json:"generation"`
}

// Loading is the provisional view shown until a restore resolves.
func Loading() View { return View{State: StateLoading} }

func (v View) moveTo(next View) (View, error) {
	if !v.State.CanTransitionTo(next.State) {
		return v, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, v.State, next.State)
	}
	next.Generation = v.Generation + 1
	return next, nil
}

func errorNotice(err error) *Notice {
	return &Notice{Kind: NoticeError, Message: err.Error()}
}

// ApplyRestore resolves LOADING from a session restore outcome.
func ApplyRestore(v View, out domain.RestoreOutcome) (View, error) {
	if v.State != StateLoading {
		return v, fmt.Errorf("%w: restore outside %s", domain.ErrInvalidTransition, StateLoading)
	}
	if out.Status == domain.RestoreRestored && out.Profile != nil {
		return v.moveTo(View{State: StateDashboard, Profile: out.Profile})
	}
	next := View{State: StateLogin}
	if out.Status == domain.RestoreInvalidated && out.Cause == domain.DirectoryTransportError {
		next.Notice = &Notice{Kind: NoticeInfo, Message: "We could not confirm your membership. Please log in again."}
	}
	return v.moveTo(next)
}

// ApplyLogin moves LOGIN according to a login outcome.
func ApplyLogin(v View, out domain.LoginOutcome) (View, error) {
	if v.State != StateLogin {
		return v, fmt.Errorf("%w: login outside %s", domain.ErrInvalidTransition, StateLogin)
	}
	switch out.Status {
	case domain.LoginSuccess:
		return v.moveTo(View{State: StateDashboard, Profile: out.Profile})
	case domain.LoginNeedsSetup:
		return v.moveTo(View{
			State:  StateSetupPin,
			Phone:  out.Phone,
			Notice: &Notice{Kind: NoticeInfo, Message: "Please set up your 4-digit PIN."},
		})
	default:
		return v.moveTo(View{State: StateLogin, Notice: errorNotice(out.Err())})
	}
}

// ApplyResetLookup moves LOGIN to SETUP_PIN in reset mode when the phone is
// known, otherwise stays on LOGIN with a notice.
func ApplyResetLookup(v View, out domain.ResetOutcome) (View, error) {
	if v.State != StateLogin {
		return v, fmt.Errorf("%w: reset outside %s", domain.ErrInvalidTransition, StateLogin)
	}
	if out.Status == domain.ResetAllowed {
		return v.moveTo(View{State: StateSetupPin, Phone: out.Phone, IsReset: true})
	}
	return v.moveTo(View{State: StateLogin, Notice: errorNotice(out.Err())})
}

// ApplySetup moves SETUP_PIN according to a setup outcome.
func ApplySetup(v View, out domain.SetupOutcome) (View, error) {
	if v.State != StateSetupPin {
		return v, fmt.Errorf("%w: setup outside %s", domain.ErrInvalidTransition, StateSetupPin)
	}
	switch out.Status {
	case domain.SetupSuccess:
		return v.moveTo(View{State: StateDashboard, Profile: out.Profile})
	case domain.SetupProfileUnavailable:
		return v.moveTo(View{State: StateLogin, Notice: &Notice{Kind: NoticeInfo, Message: "PIN updated, please log in."}})
	default:
		msg := out.Err()
		if out.Reason != "" {
			msg = errors.New(out.Reason)
		}
		return v.moveTo(View{State: StateSetupPin, Phone: v.Phone, IsReset: v.IsReset, Notice: errorNotice(msg)})
	}
}

// Back leaves SETUP_PIN for LOGIN.
func Back(v View) (View, error) {
	if v.State != StateSetupPin {
		return v, fmt.Errorf("%w: back outside %s", domain.ErrInvalidTransition, StateSetupPin)
	}
	return v.moveTo(View{State: StateLogin})
}

// Logout leaves DASHBOARD for LOGIN.
func Logout(v View) (View, error) {
	if v.State != StateDashboard {
		return v, fmt.Errorf("%w: logout outside %s", domain.ErrInvalidTransition, StateDashboard)
	}
	return v.moveTo(View{State: StateLogin})
}

// Reload puts a DASHBOARD back into LOADING so the session is revalidated.
func Reload(v View) (View, error) {
	if v.State != StateDashboard {
		return v, fmt.Errorf("%w: reload outside %s", domain.ErrInvalidTransition, StateDashboard)
	}
	return v.moveTo(View{State: StateLoading})
}

// WithNotice returns v carrying an error notice without moving it.
func WithNotice(v View, err error) View {
	v.Notice = errorNotice(err)
	return v
}
