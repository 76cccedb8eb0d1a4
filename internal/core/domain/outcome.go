package domain

// DirectoryStatus is the closed set of outcomes a directory gateway call can
// produce. Raw gateway payloads are classified into one of these at the
// client boundary; nothing above the client inspects JSON.
type DirectoryStatus int

const (
	DirectoryOK DirectoryStatus = iota + 1
	DirectoryNotFound
	DirectoryNeedsPinSetup
	DirectoryInvalidPin
	DirectoryRejected
	DirectoryTransportError
)

var directoryStatusNames = map[DirectoryStatus]string{
	DirectoryOK:             "ok",
	DirectoryNotFound:       "not_found",
	DirectoryNeedsPinSetup:  "needs_pin_setup",
	DirectoryInvalidPin:     "invalid_pin",
	DirectoryRejected:       "rejected",
	DirectoryTransportError: "transport_error",
}

func (s DirectoryStatus) String() string {
	if name, ok := directoryStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// DirectoryResult carries a classified directory outcome.
//
//	VerifyExists:          OK | NotFound | TransportError
//	Login:                 OK(+Profile) | NeedsPinSetup | InvalidPin | NotFound | TransportError
//	SetupOrResetPin:       OK | Rejected(+Reason) | TransportError
//	FetchProfile:          OK(+Profile) | NotFound | TransportError
//	SaveNotificationToken: OK | Rejected(+Reason) | TransportError
type DirectoryResult struct {
	Status  DirectoryStatus
	Profile *MemberProfile
	Reason  string
	Err     error
}

// IdentityStatus is the closed set of outcomes from the primary identity
// provider.
type IdentityStatus int

const (
	IdentityOK IdentityStatus = iota + 1
	IdentityInvalidCredential
	IdentityNotRegistered
	IdentityAlreadyRegistered
	IdentityRequiresRecentAuth
	IdentityTransportError
)

var identityStatusNames = map[IdentityStatus]string{
	IdentityOK:                 "ok",
	IdentityInvalidCredential:  "invalid_credential",
	IdentityNotRegistered:      "not_registered",
	IdentityAlreadyRegistered:  "already_registered",
	IdentityRequiresRecentAuth: "requires_recent_auth",
	IdentityTransportError:     "transport_error",
}

func (s IdentityStatus) String() string {
	if name, ok := identityStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IdentityResult carries a classified identity provider outcome.
//
//	SignIn:       OK(+Principal) | InvalidCredential | NotRegistered | TransportError
//	Register:     OK(+Principal) | AlreadyRegistered | TransportError
//	ChangeSecret: OK | RequiresRecentAuth | TransportError
type IdentityResult struct {
	Status    IdentityStatus
	Principal *Principal
	Err       error
}

// AuthPath records which backend settled a successful login.
type AuthPath string

const (
	PathPrimary   AuthPath = "primary"
	PathDirectory AuthPath = "directory"
	PathSession   AuthPath = "session"
)

// LoginStatus classifies the result of a login attempt.
type LoginStatus int

const (
	LoginSuccess LoginStatus = iota + 1
	LoginNeedsSetup
	LoginInvalidCredential
	LoginNotFound
	LoginTransportFailure
)

var loginStatusNames = map[LoginStatus]string{
	LoginSuccess:           "success",
	LoginNeedsSetup:        "needs_setup",
	LoginInvalidCredential: "invalid_credential",
	LoginNotFound:          "not_found",
	LoginTransportFailure:  "transport_failure",
}

func (s LoginStatus) String() string {
	if name, ok := loginStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// LoginOutcome is the single user-facing result of a login attempt.
type LoginOutcome struct {
	Status    LoginStatus
	Phone     string
	Profile   *MemberProfile
	Principal *Principal
	Path      AuthPath
}

// Err maps a non-success outcome to the error shown to the user. NotFound
// and InvalidCredential share one message so login does not reveal which
// phone numbers have accounts.
func (o LoginOutcome) Err() error {
	switch o.Status {
	case LoginSuccess:
		return nil
	case LoginNeedsSetup:
		return ErrNeedsSetup
	case LoginInvalidCredential, LoginNotFound:
		return ErrInvalidCredential
	default:
		return ErrTransport
	}
}

// SetupStatus classifies the result of a PIN setup or reset.
type SetupStatus int

const (
	SetupSuccess SetupStatus = iota + 1
	SetupProfileUnavailable
	SetupRejected
	SetupTransportFailure
)

var setupStatusNames = map[SetupStatus]string{
	SetupSuccess:            "success",
	SetupProfileUnavailable: "profile_unavailable",
	SetupRejected:           "rejected",
	SetupTransportFailure:   "transport_failure",
}

func (s SetupStatus) String() string {
	if name, ok := setupStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// PrimarySync records what happened to the best-effort primary provider
// update after a directory PIN write.
type PrimarySync string

const (
	PrimarySynced      PrimarySync = "synced"
	PrimaryStale       PrimarySync = "stale"
	PrimaryUnreachable PrimarySync = "unreachable"
	PrimaryDisabled    PrimarySync = "disabled"
)

// SetupOutcome is the result of a PIN setup or reset.
type SetupOutcome struct {
	Status    SetupStatus
	Phone     string
	Profile   *MemberProfile
	Principal *Principal
	Sync      PrimarySync
	Reason    string
}

// Err maps a non-success outcome to the error shown to the user.
func (o SetupOutcome) Err() error {
	switch o.Status {
	case SetupSuccess:
		return nil
	case SetupProfileUnavailable:
		return ErrProfileUnavailable
	case SetupRejected:
		return ErrPinRejected
	default:
		return ErrTransport
	}
}

// ResetStatus classifies a forgot-PIN lookup.
type ResetStatus int

const (
	ResetAllowed ResetStatus = iota + 1
	ResetNotFound
	ResetTransportFailure
)

// ResetOutcome is the result of a forgot-PIN lookup.
type ResetOutcome struct {
	Status ResetStatus
	Phone  string
}

// Err maps a non-success outcome to the error shown to the user. Unlike
// login, a reset lookup says plainly that the phone is unknown: the member
// asserted an account exists.
func (o ResetOutcome) Err() error {
	switch o.Status {
	case ResetAllowed:
		return nil
	case ResetNotFound:
		return ErrMemberNotFound
	default:
		return ErrTransport
	}
}

// RestoreStatus classifies a startup session restore.
type RestoreStatus int

const (
	RestoreNoSession RestoreStatus = iota + 1
	RestoreRestored
	RestoreInvalidated
)

var restoreStatusNames = map[RestoreStatus]string{
	RestoreNoSession:   "no_session",
	RestoreRestored:    "restored",
	RestoreInvalidated: "invalidated",
}

func (s RestoreStatus) String() string {
	if name, ok := restoreStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// RestoreOutcome is the result of revalidating a persisted session.
type RestoreOutcome struct {
	Status  RestoreStatus
	Phone   string
	Profile *MemberProfile
	// Cause is the directory status that invalidated the session.
	Cause DirectoryStatus
}
