package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/credential"
	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

// Reconciler implements ports.AuthReconciler. The directory is authoritative;
// the primary identity provider is consulted first because it is faster, and
// any disagreement it produces is treated as a signal, not a verdict.
type Reconciler struct {
	directory  ports.DirectoryClient
	identity   ports.IdentityProvider
	synth      credential.Synthesizer
	events     ports.AuthEventRecorder
	metrics    ports.AuthMetrics
	sessionTTL time.Duration
	guard      *flightGuard
	log        zerolog.Logger
	now        func() time.Time
}

// ReconcilerOption customises a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithEventRecorder sends audit events to rec.
func WithEventRecorder(rec ports.AuthEventRecorder) ReconcilerOption {
	return func(r *Reconciler) {
		if rec != nil {
			r.events = rec
		}
	}
}

// WithMetrics reports decisions to m.
func WithMetrics(m ports.AuthMetrics) ReconcilerOption {
	return func(r *Reconciler) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithSessionTTL overrides domain.DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if ttl > 0 {
			r.sessionTTL = ttl
		}
	}
}

// WithSynthesizer overrides the synthetic credential derivation.
func WithSynthesizer(s credential.Synthesizer) ReconcilerOption {
	return func(r *Reconciler) { r.synth = s }
}

// WithFlightTimeout bounds a login or PIN setup shared by coalesced callers.
func WithFlightTimeout(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.guard.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

// NewReconciler builds a Reconciler. identity may be nil, in which case every
// decision goes straight to the directory.
func NewReconciler(directory ports.DirectoryClient, identity ports.IdentityProvider, log zerolog.Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		directory:  directory,
		identity:   identity,
		synth:      credential.NewSynthesizer(""),
		events:     nopRecorder{},
		metrics:    nopMetrics{},
		sessionTTL: domain.DefaultSessionTTL,
		guard:      newFlightGuard(),
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.AuthReconciler = (*Reconciler)(nil)

// Login validates the credentials, tries the primary provider, falls back to
// the directory and persists a session on success.
func (r *Reconciler) Login(ctx context.Context, sessions ports.SessionStore, phone, pin string) (domain.LoginOutcome, error) {
	if err := domain.ValidatePhone(phone); err != nil {
		return domain.LoginOutcome{}, err
	}
	if err := domain.ValidatePin(pin); err != nil {
		return domain.LoginOutcome{}, err
	}
	phone = domain.NormalizePhone(phone)
	digest := credential.Digest(pin, phone)

	v, err := r.guard.do(ctx, phone, "login:"+digest, func(ctx context.Context) any {
		return r.resolveLogin(ctx, phone, pin, digest)
	})
	if err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("login: %w", err)
	}
	outcome := v.(domain.LoginOutcome)

	// A caller that went away must not leave a session behind.
	if ctx.Err() != nil {
		return domain.LoginOutcome{}, fmt.Errorf("login: %w", domain.ErrOperationCancelled)
	}

	if outcome.Status == domain.LoginSuccess {
		r.persistSession(ctx, sessions, phone)
	}

	r.metrics.LoginResolved(outcome.Status, outcome.Path)
	r.record(domain.AuthEvent{
		Kind:    domain.EventLogin,
		Phone:   phone,
		Outcome: outcome.Status.String(),
		Path:    outcome.Path,
	})
	r.log.Info().
		Str("phone", domain.MaskPhone(phone)).
		Str("outcome", outcome.Status.String()).
		Str("path", string(outcome.Path)).
		Msg("login resolved")

	return outcome, nil
}

func (r *Reconciler) resolveLogin(ctx context.Context, phone, pin, digest string) domain.LoginOutcome {
	primaryStatus := domain.IdentityStatus(0)

	if r.identity != nil {
		res := r.identity.SignIn(ctx, r.synth.ID(phone), r.synth.Secret(pin))
		primaryStatus = res.Status

		if res.Status == domain.IdentityOK {
			// The provider carries no membership fields; the directory
			// supplies the profile.
			prof := r.directory.FetchProfile(ctx, phone)
			if prof.Status == domain.DirectoryOK && prof.Profile != nil {
				return domain.LoginOutcome{
					Status:    domain.LoginSuccess,
					Phone:     phone,
					Profile:   prof.Profile,
					Principal: res.Principal,
					Path:      domain.PathPrimary,
				}
			}
			r.log.Warn().
				Err(prof.Err).
				Str("phone", domain.MaskPhone(phone)).
				Str("directory", prof.Status.String()).
				Msg("primary accepted credentials but directory profile is unavailable")
			r.identity.SignOut(ctx, res.Principal)
			return domain.LoginOutcome{Status: domain.LoginTransportFailure, Phone: phone, Path: domain.PathPrimary}
		}

		r.metrics.PrimaryFallback(res.Status)
		r.log.Debug().
			Err(res.Err).
			Str("phone", domain.MaskPhone(phone)).
			Str("primary", res.Status.String()).
			Msg("primary sign-in failed, falling back to directory")

		if ctx.Err() != nil {
			return domain.LoginOutcome{Status: domain.LoginTransportFailure, Phone: phone}
		}
	}

	res := r.directory.Login(ctx, phone, digest)
	outcome := domain.LoginOutcome{Phone: phone, Path: domain.PathDirectory}

	switch res.Status {
	case domain.DirectoryOK:
		if res.Profile == nil {
			outcome.Status = domain.LoginTransportFailure
			return outcome
		}
		outcome.Status = domain.LoginSuccess
		outcome.Profile = res.Profile
		if primaryStatus != 0 {
			r.noteDivergence(phone, primaryStatus)
			outcome.Principal = r.healPrimary(ctx, phone, pin, primaryStatus)
		}
	case domain.DirectoryNeedsPinSetup:
		outcome.Status = domain.LoginNeedsSetup
	case domain.DirectoryInvalidPin:
		outcome.Status = domain.LoginInvalidCredential
	case domain.DirectoryNotFound:
		outcome.Status = domain.LoginNotFound
	default:
		r.log.Warn().
			Err(res.Err).
			Str("phone", domain.MaskPhone(phone)).
			Msg("directory login failed")
		outcome.Status = domain.LoginTransportFailure
	}
	return outcome
}

// noteDivergence records that the directory accepted credentials the primary
// provider did not.
func (r *Reconciler) noteDivergence(phone string, primary domain.IdentityStatus) {
	r.record(domain.AuthEvent{
		Kind:      domain.EventDivergence,
		Phone:     phone,
		Outcome:   "directory_accepted",
		Primary:   primary.String(),
		Directory: domain.DirectoryOK.String(),
	})
}

// healPrimary registers members the primary provider has never seen, after
// the directory vouched for them. Providers with email enumeration protection
// report unknown accounts as invalid credentials, so registration is tried
// for both; AlreadyRegistered then means the primary holds a stale secret,
// which cannot be repaired here because changing it needs the old one.
func (r *Reconciler) healPrimary(ctx context.Context, phone, pin string, primary domain.IdentityStatus) *domain.Principal {
	if ctx.Err() != nil {
		return nil
	}
	if primary != domain.IdentityNotRegistered && primary != domain.IdentityInvalidCredential {
		return nil
	}
	res := r.identity.Register(ctx, r.synth.ID(phone), r.synth.Secret(pin))
	switch res.Status {
	case domain.IdentityOK:
		r.metrics.PrimarySync(domain.PrimarySynced)
		return res.Principal
	case domain.IdentityAlreadyRegistered:
		r.log.Debug().
			Str("phone", domain.MaskPhone(phone)).
			Msg("primary holds a stale secret for member")
	default:
		r.log.Info().
			Err(res.Err).
			Str("phone", domain.MaskPhone(phone)).
			Str("primary", res.Status.String()).
			Msg("could not register member with primary provider")
	}
	return nil
}

func (r *Reconciler) persistSession(ctx context.Context, sessions ports.SessionStore, phone string) {
	if sessions == nil {
		return
	}
	if _, err := sessions.Save(ctx, phone, r.sessionTTL); err != nil {
		r.log.Error().
			Err(err).
			Str("phone", domain.MaskPhone(phone)).
			Msg("failed to persist session record")
	}
}

func (r *Reconciler) record(ev domain.AuthEvent) {
	ev.ID = uuid.NewString()
	ev.OccurredAt = r.now().UTC()
	r.events.Record(ev)
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuthEvent) {}

type nopMetrics struct{}

func (nopMetrics) LoginResolved(domain.LoginStatus, domain.AuthPath) {}
func (nopMetrics) PrimaryFallback(domain.IdentityStatus)             {}
func (nopMetrics) PrimarySync(domain.PrimarySync)                    {}
func (nopMetrics) SetupResolved(domain.SetupStatus)                  {}
func (nopMetrics) SessionRestored(domain.RestoreStatus)              {}
