package service

import (
	"context"
	"fmt"

	"github.com/crossfitlagos/member-portal/internal/core/credential"
	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

// BeginReset confirms a phone has a directory record before the member is
// allowed to choose a new PIN.
func (r *Reconciler) BeginReset(ctx context.Context, phone string) (domain.ResetOutcome, error) {
	if err := domain.ValidatePhone(phone); err != nil {
		return domain.ResetOutcome{}, err
	}
	phone = domain.NormalizePhone(phone)

	res := r.directory.VerifyExists(ctx, phone)
	if ctx.Err() != nil {
		return domain.ResetOutcome{}, fmt.Errorf("reset lookup: %w", domain.ErrOperationCancelled)
	}

	outcome := domain.ResetOutcome{Phone: phone}
	switch res.Status {
	case domain.DirectoryOK:
		outcome.Status = domain.ResetAllowed
	case domain.DirectoryNotFound:
		outcome.Status = domain.ResetNotFound
	default:
		r.log.Warn().Err(res.Err).Str("phone", domain.MaskPhone(phone)).Msg("reset lookup failed")
		outcome.Status = domain.ResetTransportFailure
	}

	r.record(domain.AuthEvent{
		Kind:      domain.EventReset,
		Phone:     phone,
		Outcome:   res.Status.String(),
		Directory: res.Status.String(),
	})
	return outcome, nil
}

// SetupPin writes the new PIN digest to the directory and only then tries to
// bring the primary provider in line. The directory write is the commit
// point: once it succeeds the setup has succeeded, whatever the primary does.
func (r *Reconciler) SetupPin(ctx context.Context, sessions ports.SessionStore, in ports.SetupInput) (domain.SetupOutcome, error) {
	if err := domain.ValidatePhone(in.Phone); err != nil {
		return domain.SetupOutcome{}, err
	}
	if err := domain.ValidatePin(in.Pin); err != nil {
		return domain.SetupOutcome{}, err
	}
	phone := domain.NormalizePhone(in.Phone)
	digest := credential.Digest(in.Pin, phone)

	v, err := r.guard.do(ctx, phone, "setup:"+digest, func(ctx context.Context) any {
		return r.resolveSetup(ctx, phone, in.Pin, digest, in.Principal)
	})
	if err != nil {
		return domain.SetupOutcome{}, fmt.Errorf("pin setup: %w", err)
	}
	outcome := v.(domain.SetupOutcome)

	if ctx.Err() != nil {
		return domain.SetupOutcome{}, fmt.Errorf("pin setup: %w", domain.ErrOperationCancelled)
	}

	if outcome.Status == domain.SetupSuccess {
		r.persistSession(ctx, sessions, phone)
	}

	r.metrics.SetupResolved(outcome.Status)
	r.record(domain.AuthEvent{
		Kind:    domain.EventSetup,
		Phone:   phone,
		Outcome: outcome.Status.String(),
		Primary: string(outcome.Sync),
	})
	r.log.Info().
		Str("phone", domain.MaskPhone(phone)).
		Bool("reset", in.IsReset).
		Str("outcome", outcome.Status.String()).
		Str("primary_sync", string(outcome.Sync)).
		Msg("pin setup resolved")

	return outcome, nil
}

func (r *Reconciler) resolveSetup(ctx context.Context, phone, pin, digest string, current *domain.Principal) domain.SetupOutcome {
	outcome := domain.SetupOutcome{Phone: phone}

	// 1. Authoritative write. Nothing touches the primary unless it lands.
	res := r.directory.SetupOrResetPin(ctx, phone, digest)
	switch res.Status {
	case domain.DirectoryOK:
	case domain.DirectoryRejected:
		outcome.Status = domain.SetupRejected
		outcome.Reason = res.Reason
		return outcome
	default:
		r.log.Warn().Err(res.Err).Str("phone", domain.MaskPhone(phone)).Msg("directory pin write failed")
		outcome.Status = domain.SetupTransportFailure
		return outcome
	}

	// 2. Best-effort primary sync.
	outcome.Sync, outcome.Principal = r.syncPrimary(ctx, phone, pin, current)
	r.metrics.PrimarySync(outcome.Sync)

	// 3. Profile for the dashboard.
	prof := r.directory.FetchProfile(ctx, phone)
	if prof.Status != domain.DirectoryOK || prof.Profile == nil {
		r.log.Warn().
			Err(prof.Err).
			Str("phone", domain.MaskPhone(phone)).
			Str("directory", prof.Status.String()).
			Msg("pin updated but profile could not be fetched")
		outcome.Status = domain.SetupProfileUnavailable
		return outcome
	}

	outcome.Status = domain.SetupSuccess
	outcome.Profile = prof.Profile
	return outcome
}

// syncPrimary pushes the new secret to the primary provider. Failure is
// expected when the member's old secret is unknown, and is only logged: the
// directory fallback keeps the member able to log in.
func (r *Reconciler) syncPrimary(ctx context.Context, phone, pin string, current *domain.Principal) (domain.PrimarySync, *domain.Principal) {
	if r.identity == nil {
		return domain.PrimaryDisabled, nil
	}
	id, secret := r.synth.ID(phone), r.synth.Secret(pin)

	if current.Valid(r.now()) {
		res := r.identity.ChangeSecret(ctx, current, secret)
		switch res.Status {
		case domain.IdentityOK:
			if res.Principal != nil {
				return domain.PrimarySynced, res.Principal
			}
			return domain.PrimarySynced, current
		case domain.IdentityRequiresRecentAuth:
			r.log.Info().Str("phone", domain.MaskPhone(phone)).Msg("primary requires recent sign-in; secret left stale")
			return domain.PrimaryStale, nil
		default:
			r.log.Warn().Err(res.Err).Str("phone", domain.MaskPhone(phone)).Msg("primary secret change failed")
			return domain.PrimaryUnreachable, nil
		}
	}

	reg := r.identity.Register(ctx, id, secret)
	switch reg.Status {
	case domain.IdentityOK:
		return domain.PrimarySynced, reg.Principal
	case domain.IdentityAlreadyRegistered:
		// The primary secret may already match (same PIN re-entered, or
		// an earlier sync landed).
		si := r.identity.SignIn(ctx, id, secret)
		switch si.Status {
		case domain.IdentityOK:
			return domain.PrimarySynced, si.Principal
		case domain.IdentityTransportError:
			r.log.Warn().Err(si.Err).Str("phone", domain.MaskPhone(phone)).Msg("primary sign-in after registration conflict failed")
			return domain.PrimaryUnreachable, nil
		default:
			r.log.Info().
				Str("phone", domain.MaskPhone(phone)).
				Str("primary", si.Status.String()).
				Msg("primary secret is stale and cannot be resynced without the old PIN")
			return domain.PrimaryStale, nil
		}
	default:
		r.log.Warn().Err(reg.Err).Str("phone", domain.MaskPhone(phone)).Msg("primary registration failed")
		return domain.PrimaryUnreachable, nil
	}
}
