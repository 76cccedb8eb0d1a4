package portal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
	"github.com/crossfitlagos/member-portal/internal/core/session"
)

const device = "device-1"

type mapKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapKV() *mapKV { return &mapKV{data: make(map[string]string)} }

func (m *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// stubAuth returns canned outcomes. block, when set, is waited on inside
// Login so tests can interleave other actions.
type stubAuth struct {
	restore   domain.RestoreOutcome
	login     domain.LoginOutcome
	loginErr  error
	reset     domain.ResetOutcome
	setup     domain.SetupOutcome
	lastSetup ports.SetupInput
	logouts   int
	block     chan struct{}
	entered   chan struct{}
}

func (s *stubAuth) Login(ctx context.Context, sessions ports.SessionStore, _, _ string) (domain.LoginOutcome, error) {
	if s.block != nil {
		close(s.entered)
		<-s.block
		if ctx.Err() != nil {
			return domain.LoginOutcome{}, domain.ErrOperationCancelled
		}
	}
	if s.loginErr != nil {
		return domain.LoginOutcome{}, s.loginErr
	}
	if s.login.Status == domain.LoginSuccess {
		_, _ = sessions.Save(ctx, s.login.Phone, time.Hour)
	}
	return s.login, nil
}

func (s *stubAuth) BeginReset(_ context.Context, _ string) (domain.ResetOutcome, error) {
	return s.reset, nil
}

func (s *stubAuth) SetupPin(_ context.Context, _ ports.SessionStore, in ports.SetupInput) (domain.SetupOutcome, error) {
	s.lastSetup = in
	return s.setup, nil
}

func (s *stubAuth) Restore(ctx context.Context, sessions ports.SessionStore) (domain.RestoreOutcome, error) {
	return s.restore, nil
}

func (s *stubAuth) Logout(ctx context.Context, sessions ports.SessionStore, _ *domain.Principal) error {
	s.logouts++
	return sessions.Clear(ctx)
}

type stubTokens struct {
	ports.DirectoryClient
	tokens map[string]string
}

func (d *stubTokens) SaveNotificationToken(_ context.Context, phone, token string) domain.DirectoryResult {
	d.tokens[phone] = token
	return domain.DirectoryResult{Status: domain.DirectoryOK}
}

func newTestController(auth *stubAuth) (*Controller, *mapKV) {
	kv := newMapKV()
	c := NewController(auth, &stubTokens{tokens: map[string]string{}}, nil, kv, time.Hour, zerolog.Nop())
	return c, kv
}

var member = &domain.MemberProfile{FirstName: "Ada", Phone: "08011112222"}

func TestController_StartWithoutSession(t *testing.T) {
	c, _ := newTestController(&stubAuth{restore: domain.RestoreOutcome{Status: domain.RestoreNoSession}})

	v, err := c.Start(context.Background(), device)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.State != StateLogin {
		t.Fatalf("expected login, got %s", v.State)
	}

	// A second start keeps the device where it is.
	v2, err := c.Start(context.Background(), device)
	if err != nil || v2.State != StateLogin || v2.Generation != v.Generation {
		t.Fatalf("expected unchanged login view, got %+v (%v)", v2, err)
	}
}

func TestController_StartRestoresDashboard(t *testing.T) {
	auth := &stubAuth{restore: domain.RestoreOutcome{Status: domain.RestoreRestored, Phone: member.Phone, Profile: member}}
	c, _ := newTestController(auth)

	v, err := c.Start(context.Background(), device)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.State != StateDashboard || v.Profile == nil || v.Profile.FirstName != "Ada" {
		t.Fatalf("expected dashboard, got %+v", v)
	}

	// Reopening the portal revalidates the session.
	auth.restore = domain.RestoreOutcome{Status: domain.RestoreInvalidated, Cause: domain.DirectoryNotFound}
	v, err = c.Start(context.Background(), device)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.State != StateLogin {
		t.Fatalf("expected login after invalidation, got %s", v.State)
	}
}

func TestController_LoginFlow(t *testing.T) {
	auth := &stubAuth{restore: domain.RestoreOutcome{Status: domain.RestoreNoSession}}
	c, kv := newTestController(auth)
	ctx := context.Background()
	if _, err := c.Start(ctx, device); err != nil {
		t.Fatalf("start: %v", err)
	}

	auth.login = domain.LoginOutcome{Status: domain.LoginInvalidCredential}
	v, err := c.Login(ctx, device, member.Phone, "9999")
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential, got %v", err)
	}
	if rej, ok := IsRejection(err); !ok || rej.View.State != StateLogin || rej.View.Notice == nil {
		t.Fatalf("expected rejection carrying login view, got %+v", err)
	}
	if v.State != StateLogin {
		t.Fatalf("expected login, got %s", v.State)
	}

	auth.login = domain.LoginOutcome{Status: domain.LoginSuccess, Phone: member.Phone, Profile: member, Path: domain.PathDirectory}
	v, err = c.Login(ctx, device, member.Phone, "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if v.State != StateDashboard {
		t.Fatalf("expected dashboard, got %s", v.State)
	}
	if _, ok := kv.data[device+":hoa_session"]; !ok {
		t.Fatalf("expected session record for device")
	}

	if err := c.SaveNotificationToken(ctx, device, "push-token"); err != nil {
		t.Fatalf("token: %v", err)
	}

	v, err = c.Logout(ctx, device)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if v.State != StateLogin || auth.logouts != 1 {
		t.Fatalf("expected login after logout, got %+v", v)
	}
	if _, ok := kv.data[device+":hoa_session"]; ok {
		t.Fatalf("expected session record cleared")
	}
	if err := c.SaveNotificationToken(ctx, device, "push-token"); !errors.Is(err, domain.ErrNoActiveMember) {
		t.Fatalf("expected no active member, got %v", err)
	}
}

func TestController_NeedsSetupThenSetup(t *testing.T) {
	auth := &stubAuth{
		restore: domain.RestoreOutcome{Status: domain.RestoreNoSession},
		login:   domain.LoginOutcome{Status: domain.LoginNeedsSetup, Phone: member.Phone},
	}
	c, _ := newTestController(auth)
	ctx := context.Background()
	_, _ = c.Start(ctx, device)

	v, err := c.Login(ctx, device, member.Phone, "1234")
	if err != nil {
		t.Fatalf("needs setup is not an error, got %v", err)
	}
	if v.State != StateSetupPin || v.Phone != member.Phone {
		t.Fatalf("expected setup view, got %+v", v)
	}

	if _, err := c.SetupPin(ctx, device, "1234", "4321"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected mismatch validation error, got %v", err)
	}

	auth.setup = domain.SetupOutcome{Status: domain.SetupSuccess, Phone: member.Phone, Profile: member}
	v, err = c.SetupPin(ctx, device, "1234", "1234")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if v.State != StateDashboard {
		t.Fatalf("expected dashboard, got %s", v.State)
	}
	if auth.lastSetup.Phone != member.Phone || auth.lastSetup.IsReset {
		t.Fatalf("unexpected setup input %+v", auth.lastSetup)
	}
}

func TestController_ResetAndBack(t *testing.T) {
	auth := &stubAuth{
		restore: domain.RestoreOutcome{Status: domain.RestoreNoSession},
		reset:   domain.ResetOutcome{Status: domain.ResetAllowed, Phone: member.Phone},
	}
	c, _ := newTestController(auth)
	ctx := context.Background()
	_, _ = c.Start(ctx, device)

	v, err := c.BeginReset(ctx, device, member.Phone)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v.State != StateSetupPin || !v.IsReset {
		t.Fatalf("expected reset setup view, got %+v", v)
	}

	v, err = c.Back(ctx, device)
	if err != nil || v.State != StateLogin {
		t.Fatalf("back: %+v %v", v, err)
	}

	if _, err := c.Back(ctx, device); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	auth.reset = domain.ResetOutcome{Status: domain.ResetNotFound}
	if _, err := c.BeginReset(ctx, device, "08099990000"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestController_SetupProfileUnavailableReturnsToLogin(t *testing.T) {
	auth := &stubAuth{
		restore: domain.RestoreOutcome{Status: domain.RestoreNoSession},
		reset:   domain.ResetOutcome{Status: domain.ResetAllowed, Phone: member.Phone},
		setup:   domain.SetupOutcome{Status: domain.SetupProfileUnavailable, Phone: member.Phone},
	}
	c, _ := newTestController(auth)
	ctx := context.Background()
	_, _ = c.Start(ctx, device)
	_, _ = c.BeginReset(ctx, device, member.Phone)

	v, err := c.SetupPin(ctx, device, "5555", "5555")
	if err != nil {
		t.Fatalf("profile unavailable is shown as a notice, got %v", err)
	}
	if v.State != StateLogin || v.Notice == nil {
		t.Fatalf("expected login with notice, got %+v", v)
	}
	if !auth.lastSetup.IsReset {
		t.Fatalf("expected reset flag to reach the reconciler")
	}
}

func TestController_CancelDiscardsLateResult(t *testing.T) {
	auth := &stubAuth{
		restore: domain.RestoreOutcome{Status: domain.RestoreNoSession},
		login:   domain.LoginOutcome{Status: domain.LoginSuccess, Phone: member.Phone, Profile: member},
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	c, kv := newTestController(auth)
	ctx := context.Background()
	_, _ = c.Start(ctx, device)

	errs := make(chan error, 1)
	go func() {
		_, err := c.Login(ctx, device, member.Phone, "1234")
		errs <- err
	}()
	<-auth.entered

	v, err := c.Cancel(ctx, device)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if v.State != StateLogin {
		t.Fatalf("expected login, got %s", v.State)
	}
	close(auth.block)

	if err := <-errs; !errors.Is(err, domain.ErrOperationCancelled) {
		t.Fatalf("expected cancelled login, got %v", err)
	}
	if _, ok := kv.data[device+":hoa_session"]; ok {
		t.Fatalf("cancelled login must not leave a session")
	}
	v, _ = c.Start(ctx, device)
	if v.State != StateLogin {
		t.Fatalf("expected device to stay on login, got %s", v.State)
	}
}

// memberAuth resolves each phone to its own member. The first login blocks
// until release is closed.
type memberAuth struct {
	*stubAuth
	members map[string]*domain.MemberProfile
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (m *memberAuth) Login(ctx context.Context, sessions ports.SessionStore, phone, _ string) (domain.LoginOutcome, error) {
	first := false
	m.once.Do(func() { first = true })
	if first {
		close(m.entered)
		<-m.release
	}
	if ctx.Err() != nil {
		return domain.LoginOutcome{}, domain.ErrOperationCancelled
	}
	if _, err := sessions.Save(ctx, phone, time.Hour); err != nil {
		return domain.LoginOutcome{}, err
	}
	return domain.LoginOutcome{Status: domain.LoginSuccess, Phone: phone, Profile: m.members[phone]}, nil
}

func TestController_OverlappingLoginsOnOneDevice(t *testing.T) {
	other := &domain.MemberProfile{FirstName: "Bola", Phone: "08033334444"}
	auth := &memberAuth{
		stubAuth: &stubAuth{restore: domain.RestoreOutcome{Status: domain.RestoreNoSession}},
		members:  map[string]*domain.MemberProfile{member.Phone: member, other.Phone: other},
		release:  make(chan struct{}),
		entered:  make(chan struct{}),
	}
	kv := newMapKV()
	c := NewController(auth, &stubTokens{tokens: map[string]string{}}, nil, kv, time.Hour, zerolog.Nop())
	ctx := context.Background()
	if _, err := c.Start(ctx, device); err != nil {
		t.Fatalf("start: %v", err)
	}

	first := make(chan View, 1)
	go func() {
		v, err := c.Login(ctx, device, member.Phone, "1234")
		if err != nil {
			t.Errorf("first login: %v", err)
		}
		first <- v
	}()
	<-auth.entered

	v, err := c.Login(ctx, device, other.Phone, "5678")
	if !errors.Is(err, domain.ErrOperationInProgress) {
		t.Fatalf("expected second login to be refused, got %v", err)
	}
	if v.State != StateLogin {
		t.Fatalf("expected login view, got %s", v.State)
	}
	if _, ok := kv.data[device+":hoa_session"]; ok {
		t.Fatalf("refused login must not write a session")
	}

	close(auth.release)
	if v := <-first; v.State != StateDashboard || v.Profile.Phone != member.Phone {
		t.Fatalf("expected dashboard for %s, got %+v", member.Phone, v)
	}

	rec, err := session.NewStore(kv, device).Load(ctx)
	if err != nil || rec == nil || rec.Phone != member.Phone {
		t.Fatalf("expected session for %s, got %+v (%v)", member.Phone, rec, err)
	}

	// The device is free again once the first login settles.
	if _, err := c.Logout(ctx, device); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if v, err := c.Login(ctx, device, other.Phone, "5678"); err != nil || v.Profile.Phone != other.Phone {
		t.Fatalf("expected login for %s, got %+v (%v)", other.Phone, v, err)
	}
}

func TestController_WrongScreen(t *testing.T) {
	c, _ := newTestController(&stubAuth{restore: domain.RestoreOutcome{Status: domain.RestoreNoSession}})
	ctx := context.Background()

	if _, err := c.Login(ctx, device, member.Phone, "1234"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("login before start: expected invalid transition, got %v", err)
	}
	_, _ = c.Start(ctx, device)
	if _, err := c.SetupPin(ctx, device, "1234", "1234"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("setup from login: expected invalid transition, got %v", err)
	}
	if _, err := c.Logout(ctx, device); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("logout from login: expected invalid transition, got %v", err)
	}
}
