// Package portal drives the member portal screens for each device: it runs
// the reconciler on the device's behalf and moves the device's view through
// the LOADING / LOGIN / SETUP_PIN / DASHBOARD machine.
package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
	"github.com/crossfitlagos/member-portal/internal/core/session"
)

// ViewKey is the per-device key the view snapshot is stored under.
const ViewKey = "portal_view"

const lockStripes = 64

// ErrPinMismatch is returned when the PIN confirmation differs.
var ErrPinMismatch = fmt.Errorf("%w: PINs do not match", domain.ErrValidation)

// Rejection is a failed action that still produced a view for the UI.
type Rejection struct {
	View View
	Err  error
}

func (r *Rejection) Error() string { return r.Err.Error() }
func (r *Rejection) Unwrap() error { return r.Err }

// snapshot is what is persisted per device.
type snapshot struct {
	View      View              `json:"view"`
	Principal *domain.Principal `json:"principal,omitempty"`
}

type operation struct {
	cancel    context.CancelFunc
	exclusive bool
}

// Controller serves portal actions for many devices over one key-value
// store.
type Controller struct {
	auth      ports.AuthReconciler
	directory ports.DirectoryClient
	pause     ports.PauseService
	kv        ports.KeyValueStore
	ttl       time.Duration
	log       zerolog.Logger

	mu       sync.Mutex
	inflight map[string]map[*operation]struct{}
	stripes  [lockStripes]sync.Mutex
}

// NewController wires a Controller. ttl bounds how long an idle device's
// view and session are kept.
func NewController(
	auth ports.AuthReconciler,
	directory ports.DirectoryClient,
	pause ports.PauseService,
	kv ports.KeyValueStore,
	ttl time.Duration,
	log zerolog.Logger,
) *Controller {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	return &Controller{
		auth:      auth,
		directory: directory,
		pause:     pause,
		kv:        kv,
		ttl:       ttl,
		log:       log,
		inflight:  make(map[string]map[*operation]struct{}),
	}
}

func (c *Controller) sessions(device string) ports.SessionStore {
	return session.NewStore(c.kv, device)
}

func viewKey(device string) string { return device + ":" + ViewKey }

func (c *Controller) lock(device string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(device))
	return &c.stripes[h.Sum32()%lockStripes]
}

// load returns the device snapshot; ok is false when none is stored.
func (c *Controller) load(ctx context.Context, device string) (snapshot, bool, error) {
	raw, ok, err := c.kv.Get(ctx, viewKey(device))
	if err != nil {
		return snapshot{}, false, fmt.Errorf("load view: %w", err)
	}
	if !ok {
		return snapshot{View: Loading()}, false, nil
	}
	var s snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.View.State == "" {
		c.log.Warn().Err(err).Str("device", device).Msg("discarding unreadable view snapshot")
		return snapshot{View: Loading()}, false, nil
	}
	return s, true, nil
}

func (c *Controller) store(ctx context.Context, device string, s snapshot) error {
	s.View.Notice = nil
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	if err := c.kv.Set(ctx, viewKey(device), string(raw), c.ttl); err != nil {
		return fmt.Errorf("save view: %w", err)
	}
	return nil
}

// begin registers a cancellable operation for the device. Exclusive
// operations may write the device's session record, so at most one runs per
// device; a second is refused with ErrOperationInProgress.
func (c *Controller) begin(ctx context.Context, device string, exclusive bool) (context.Context, *operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ops, ok := c.inflight[device]
	if !ok {
		ops = make(map[*operation]struct{})
		c.inflight[device] = ops
	}
	if exclusive {
		for op := range ops {
			if op.exclusive {
				return nil, nil, fmt.Errorf("%w: another action is running on this device", domain.ErrOperationInProgress)
			}
		}
	}
	opCtx, cancel := context.WithCancel(ctx)
	op := &operation{cancel: cancel, exclusive: exclusive}
	ops[op] = struct{}{}
	return opCtx, op, nil
}

func (c *Controller) finish(device string, op *operation) {
	op.cancel()
	c.mu.Lock()
	if ops, ok := c.inflight[device]; ok {
		delete(ops, op)
		if len(ops) == 0 {
			delete(c.inflight, device)
		}
	}
	c.mu.Unlock()
}

// cancelInflight cancels every operation running for the device.
func (c *Controller) cancelInflight(device string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops, ok := c.inflight[device]
	if !ok {
		return false
	}
	for op := range ops {
		op.cancel()
	}
	delete(c.inflight, device)
	return true
}

// commit applies fn to the current snapshot if its generation still matches
// the one the operation started under.
func (c *Controller) commit(ctx context.Context, device string, generation uint64, fn func(snapshot) (snapshot, error)) (View, error) {
	mu := c.lock(device)
	mu.Lock()
	defer mu.Unlock()

	cur, _, err := c.load(ctx, device)
	if err != nil {
		return View{}, err
	}
	if cur.View.Generation != generation {
		c.log.Debug().
			Str("device", device).
			Uint64("started", generation).
			Uint64("current", cur.View.Generation).
			Msg("discarding stale resolution")
		return cur.View, &Rejection{View: cur.View, Err: domain.ErrOperationCancelled}
	}
	next, err := fn(cur)
	if err != nil {
		return cur.View, err
	}
	if err := c.store(ctx, device, next); err != nil {
		return View{}, err
	}
	return next.View, nil
}

// Start returns the device's view, restoring its session first when the
// device has no view yet or is on the dashboard.
func (c *Controller) Start(ctx context.Context, device string) (View, error) {
	mu := c.lock(device)
	mu.Lock()
	cur, _, err := c.load(ctx, device)
	if err != nil {
		mu.Unlock()
		return View{}, err
	}
	switch cur.View.State {
	case StateLogin, StateSetupPin:
		mu.Unlock()
		return cur.View, nil
	case StateDashboard:
		loading, err := Reload(cur.View)
		if err != nil {
			mu.Unlock()
			return cur.View, err
		}
		cur.View = loading
	}
	if err := c.store(ctx, device, cur); err != nil {
		mu.Unlock()
		return View{}, err
	}
	mu.Unlock()

	generation := cur.View.Generation
	opCtx, op, _ := c.begin(ctx, device, false)
	out, err := c.auth.Restore(opCtx, c.sessions(device))
	c.finish(device, op)
	if err != nil {
		return cur.View, err
	}

	view, err := c.commit(ctx, device, generation, func(s snapshot) (snapshot, error) {
		next, err := ApplyRestore(s.View, out)
		if err != nil {
			return s, err
		}
		if next.State != StateDashboard {
			s.Principal = nil
		}
		s.View = next
		return s, nil
	})
	// Another start resolved first; its view stands.
	if rej, ok := IsRejection(err); ok && errors.Is(rej.Err, domain.ErrOperationCancelled) && rej.View.State != StateLoading {
		return rej.View, nil
	}
	return view, err
}

// current loads the snapshot and checks the device is on want.
func (c *Controller) current(ctx context.Context, device string, want State) (snapshot, error) {
	cur, _, err := c.load(ctx, device)
	if err != nil {
		return snapshot{}, err
	}
	if cur.View.State != want {
		return cur, &Rejection{
			View: cur.View,
			Err:  fmt.Errorf("%w: action needs %s, device is on %s", domain.ErrInvalidTransition, want, cur.View.State),
		}
	}
	return cur, nil
}

// Login submits phone and PIN from the LOGIN screen.
func (c *Controller) Login(ctx context.Context, device, phone, pin string) (View, error) {
	cur, err := c.current(ctx, device, StateLogin)
	if err != nil {
		return cur.View, err
	}

	opCtx, op, err := c.begin(ctx, device, true)
	if err != nil {
		return cur.View, &Rejection{View: WithNotice(cur.View, err), Err: err}
	}
	out, err := c.auth.Login(opCtx, c.sessions(device), phone, pin)
	c.finish(device, op)
	if err != nil {
		return cur.View, &Rejection{View: WithNotice(cur.View, err), Err: err}
	}

	view, err := c.commit(ctx, device, cur.View.Generation, func(s snapshot) (snapshot, error) {
		next, err := ApplyLogin(s.View, out)
		if err != nil {
			return s, err
		}
		s.View = next
		s.Principal = out.Principal
		return s, nil
	})
	if err != nil {
		return view, err
	}
	return withOutcome(view, outcomeErr(out.Status == domain.LoginNeedsSetup, out.Err()))
}

// BeginReset starts the forgot-PIN flow from the LOGIN screen.
func (c *Controller) BeginReset(ctx context.Context, device, phone string) (View, error) {
	cur, err := c.current(ctx, device, StateLogin)
	if err != nil {
		return cur.View, err
	}

	opCtx, op, err := c.begin(ctx, device, true)
	if err != nil {
		return cur.View, &Rejection{View: WithNotice(cur.View, err), Err: err}
	}
	out, err := c.auth.BeginReset(opCtx, phone)
	c.finish(device, op)
	if err != nil {
		return cur.View, &Rejection{View: WithNotice(cur.View, err), Err: err}
	}

	view, err := c.commit(ctx, device, cur.View.Generation, func(s snapshot) (snapshot, error) {
		next, err := ApplyResetLookup(s.View, out)
		if err != nil {
			return s, err
		}
		s.View = next
		return s, nil
	})
	if err != nil {
		return view, err
	}
	return withOutcome(view, out.Err())
}

// SetupPin submits a new PIN from the SETUP_PIN screen.
func (c *Controller) SetupPin(ctx context.Context, device, pin, confirm string) (View, error) {
	cur, err := c.current(ctx, device, StateSetupPin)
	if err != nil {
		return cur.View, err
	}
	if pin != confirm {
		return cur.View, &Rejection{View: WithNotice(cur.View, ErrPinMismatch), Err: ErrPinMismatch}
	}

	in := ports.SetupInput{
		Phone:     cur.View.Phone,
		Pin:       pin,
		IsReset:   cur.View.IsReset,
		Principal: cur.Principal,
	}
	opCtx, op, err := c.begin(ctx, device, true)
	if err != nil {
		return cur.View, &Rejection{View: WithNotice(cur.View, err), Err: err}
	}
	out, err := c.auth.SetupPin(opCtx, c.sessions(device), in)
	c.finish(device, op)
	if err != nil {
		return cur.View, &Rejection{View: WithNotice(cur.View, err), Err: err}
	}

	view, err := c.commit(ctx, device, cur.View.Generation, func(s snapshot) (snapshot, error) {
		next, err := ApplySetup(s.View, out)
		if err != nil {
			return s, err
		}
		s.View = next
		if out.Principal != nil {
			s.Principal = out.Principal
		}
		if next.State == StateLogin {
			s.Principal = nil
		}
		return s, nil
	})
	if err != nil {
		return view, err
	}
	return withOutcome(view, outcomeErr(out.Status == domain.SetupProfileUnavailable, out.Err()))
}

// Back returns from SETUP_PIN to LOGIN, abandoning any in-flight setup.
func (c *Controller) Back(ctx context.Context, device string) (View, error) {
	c.cancelInflight(device)
	cur, err := c.current(ctx, device, StateSetupPin)
	if err != nil {
		return cur.View, err
	}
	return c.commit(ctx, device, cur.View.Generation, func(s snapshot) (snapshot, error) {
		next, err := Back(s.View)
		if err != nil {
			return s, err
		}
		s.View = next
		return s, nil
	})
}

// Cancel aborts the device's in-flight operation. Its result, if it still
// arrives, is discarded.
func (c *Controller) Cancel(ctx context.Context, device string) (View, error) {
	cancelled := c.cancelInflight(device)

	mu := c.lock(device)
	mu.Lock()
	defer mu.Unlock()

	cur, found, err := c.load(ctx, device)
	if err != nil {
		return View{}, err
	}
	if !cancelled || !found {
		return cur.View, nil
	}
	cur.View.Generation++
	if err := c.store(ctx, device, cur); err != nil {
		return View{}, err
	}
	c.log.Info().Str("device", device).Msg("in-flight operation cancelled")
	return cur.View, nil
}

// Logout clears the session and returns to LOGIN.
func (c *Controller) Logout(ctx context.Context, device string) (View, error) {
	c.cancelInflight(device)
	cur, err := c.current(ctx, device, StateDashboard)
	if err != nil {
		return cur.View, err
	}
	if err := c.auth.Logout(ctx, c.sessions(device), cur.Principal); err != nil {
		return cur.View, err
	}
	return c.commit(ctx, device, cur.View.Generation, func(s snapshot) (snapshot, error) {
		next, err := Logout(s.View)
		if err != nil {
			return s, err
		}
		s.View = next
		s.Principal = nil
		return s, nil
	})
}

// SaveNotificationToken registers a push token for the signed-in member.
func (c *Controller) SaveNotificationToken(ctx context.Context, device, token string) error {
	member, err := c.member(ctx, device)
	if err != nil {
		return err
	}
	res := c.directory.SaveNotificationToken(ctx, member.Phone, token)
	switch res.Status {
	case domain.DirectoryOK:
		return nil
	case domain.DirectoryNotFound:
		return domain.ErrMemberNotFound
	default:
		c.log.Warn().Err(res.Err).Str("phone", domain.MaskPhone(member.Phone)).Msg("notification token not saved")
		return fmt.Errorf("save notification token: %w", domain.ErrTransport)
	}
}

// PauseOverview returns the signed-in member's pause status.
func (c *Controller) PauseOverview(ctx context.Context, device string) (ports.PauseOverview, error) {
	member, err := c.member(ctx, device)
	if err != nil {
		return ports.PauseOverview{}, err
	}
	return c.pause.Overview(ctx, member)
}

// RequestPause submits a pause request for the signed-in member.
func (c *Controller) RequestPause(ctx context.Context, device string, in ports.PauseRequestInput) (domain.PauseStatus, error) {
	member, err := c.member(ctx, device)
	if err != nil {
		return "", err
	}
	return c.pause.Request(ctx, member, in)
}

func (c *Controller) member(ctx context.Context, device string) (domain.MemberProfile, error) {
	cur, _, err := c.load(ctx, device)
	if err != nil {
		return domain.MemberProfile{}, err
	}
	if cur.View.State != StateDashboard || cur.View.Profile == nil {
		return domain.MemberProfile{}, domain.ErrNoActiveMember
	}
	return *cur.View.Profile, nil
}

// outcomeErr drops errors for outcomes the UI treats as a normal screen
// change.
func outcomeErr(expected bool, err error) error {
	if expected {
		return nil
	}
	return err
}

func withOutcome(v View, err error) (View, error) {
	if err == nil {
		return v, nil
	}
	return v, &Rejection{View: v, Err: err}
}

// IsRejection reports whether err carries a view.
func IsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
