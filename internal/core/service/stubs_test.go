package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

var errBackendDown = errors.New("backend down")

type directoryMember struct {
	digest  string
	profile domain.MemberProfile
}

type stubDirectory struct {
	mu          sync.Mutex
	members     map[string]*directoryMember
	down        bool
	profileDown bool
	calls       []string
	onLogin     func(ctx context.Context)
	onSetup     func(ctx context.Context)
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{members: make(map[string]*directoryMember)}
}

func (d *stubDirectory) addMember(phone, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[phone] = &directoryMember{
		digest: digest,
		profile: domain.MemberProfile{
			FirstName:      "Ada",
			LastName:       "Obi",
			Phone:          phone,
			Package:        "Unlimited",
			StartDate:      "2025-01-01",
			ExpirationDate: "2025-12-31",
			Status:         domain.MemberStatusActive,
		},
	}
}

func (d *stubDirectory) removeMember(phone string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.members, phone)
}

func (d *stubDirectory) note(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
}

func (d *stubDirectory) callCount(call string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (d *stubDirectory) digestOf(phone string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.members[phone]; ok {
		return m.digest
	}
	return ""
}

func (d *stubDirectory) VerifyExists(_ context.Context, phone string) domain.DirectoryResult {
	d.note("verify")
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down {
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: errBackendDown}
	}
	if _, ok := d.members[phone]; !ok {
		return domain.DirectoryResult{Status: domain.DirectoryNotFound}
	}
	return domain.DirectoryResult{Status: domain.DirectoryOK}
}

func (d *stubDirectory) Login(ctx context.Context, phone, digest string) domain.DirectoryResult {
	d.note("login")
	if d.onLogin != nil {
		d.onLogin(ctx)
	}
	if ctx.Err() != nil {
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: ctx.Err()}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down {
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: errBackendDown}
	}
	m, ok := d.members[phone]
	switch {
	case !ok:
		return domain.DirectoryResult{Status: domain.DirectoryNotFound}
	case m.digest == "":
		return domain.DirectoryResult{Status: domain.DirectoryNeedsPinSetup}
	case m.digest != digest:
		return domain.DirectoryResult{Status: domain.DirectoryInvalidPin}
	}
	profile := m.profile
	return domain.DirectoryResult{Status: domain.DirectoryOK, Profile: &profile}
}

func (d *stubDirectory) SetupOrResetPin(ctx context.Context, phone, digest string) domain.DirectoryResult {
	d.note("setup")
	if d.onSetup != nil {
		d.onSetup(ctx)
	}
	if ctx.Err() != nil {
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: ctx.Err()}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down {
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: errBackendDown}
	}
	m, ok := d.members[phone]
	if !ok {
		return domain.DirectoryResult{Status: domain.DirectoryRejected, Reason: "phone not registered"}
	}
	m.digest = digest
	return domain.DirectoryResult{Status: domain.DirectoryOK}
}

func (d *stubDirectory) FetchProfile(_ context.Context, phone string) domain.DirectoryResult {
	d.note("profile")
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down || d.profileDown {
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: errBackendDown}
	}
	m, ok := d.members[phone]
	if !ok {
		return domain.DirectoryResult{Status: domain.DirectoryNotFound}
	}
	profile := m.profile
	return domain.DirectoryResult{Status: domain.DirectoryOK, Profile: &profile}
}

func (d *stubDirectory) SaveNotificationToken(_ context.Context, phone, _ string) domain.DirectoryResult {
	d.note("token")
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.down {
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: errBackendDown}
	}
	if _, ok := d.members[phone]; !ok {
		return domain.DirectoryResult{Status: domain.DirectoryNotFound}
	}
	return domain.DirectoryResult{Status: domain.DirectoryOK}
}

type stubIdentity struct {
	mu       sync.Mutex
	accounts map[string]string
	down     bool
	calls    []string
	signOuts int
	// hideUnknown answers unknown accounts with invalid_credential, as
	// projects with email enumeration protection do.
	hideUnknown bool
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{accounts: make(map[string]string)}
}

func (p *stubIdentity) principal(id string) *domain.Principal {
	return &domain.Principal{UID: "uid-" + id, Email: id, IDToken: "token-" + id, ExpiresAt: time.Now().Add(time.Hour)}
}

func (p *stubIdentity) secretOf(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.accounts[id]
	return s, ok
}

func (p *stubIdentity) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *stubIdentity) SignIn(_ context.Context, id, secret string) domain.IdentityResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "signin")
	if p.down {
		return domain.IdentityResult{Status: domain.IdentityTransportError, Err: errBackendDown}
	}
	stored, ok := p.accounts[id]
	switch {
	case !ok && p.hideUnknown:
		return domain.IdentityResult{Status: domain.IdentityInvalidCredential}
	case !ok:
		return domain.IdentityResult{Status: domain.IdentityNotRegistered}
	case stored != secret:
		return domain.IdentityResult{Status: domain.IdentityInvalidCredential}
	}
	return domain.IdentityResult{Status: domain.IdentityOK, Principal: p.principal(id)}
}

func (p *stubIdentity) Register(_ context.Context, id, secret string) domain.IdentityResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "register")
	if p.down {
		return domain.IdentityResult{Status: domain.IdentityTransportError, Err: errBackendDown}
	}
	if _, ok := p.accounts[id]; ok {
		return domain.IdentityResult{Status: domain.IdentityAlreadyRegistered}
	}
	p.accounts[id] = secret
	return domain.IdentityResult{Status: domain.IdentityOK, Principal: p.principal(id)}
}

func (p *stubIdentity) ChangeSecret(_ context.Context, principal *domain.Principal, secret string) domain.IdentityResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "change")
	if p.down {
		return domain.IdentityResult{Status: domain.IdentityTransportError, Err: errBackendDown}
	}
	p.accounts[principal.Email] = secret
	return domain.IdentityResult{Status: domain.IdentityOK}
}

func (p *stubIdentity) SignOut(_ context.Context, _ *domain.Principal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
}

type stubSessions struct {
	mu      sync.Mutex
	record  *domain.SessionRecord
	saves   int
	clears  int
	loadErr error
}

func (s *stubSessions) Save(_ context.Context, phone string, ttl time.Duration) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.SessionRecord{Phone: phone, ExpiresAt: time.Now().Add(ttl)}
	s.record = &rec
	s.saves++
	return rec, nil
}

func (s *stubSessions) Load(_ context.Context) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.record == nil {
		return nil, nil
	}
	rec := *s.record
	return &rec, nil
}

func (s *stubSessions) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	s.clears++
	return nil
}

type captureEvents struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (c *captureEvents) Record(ev domain.AuthEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureEvents) kinds() []domain.AuthEventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.AuthEventKind, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Kind)
	}
	return out
}
