package service

import (
	"context"
	"fmt"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

// Restore revalidates a persisted session against the directory. The record
// proves who the device belongs to; the directory says whether that member
// still exists and what their membership looks like today.
func (r *Reconciler) Restore(ctx context.Context, sessions ports.SessionStore) (domain.RestoreOutcome, error) {
	rec, err := sessions.Load(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("session store unavailable; starting at login")
		r.metrics.SessionRestored(domain.RestoreNoSession)
		return domain.RestoreOutcome{Status: domain.RestoreNoSession}, nil
	}
	if rec == nil {
		r.metrics.SessionRestored(domain.RestoreNoSession)
		return domain.RestoreOutcome{Status: domain.RestoreNoSession}, nil
	}

	res := r.directory.FetchProfile(ctx, rec.Phone)
	if ctx.Err() != nil {
		return domain.RestoreOutcome{}, fmt.Errorf("restore: %w", domain.ErrOperationCancelled)
	}

	outcome := domain.RestoreOutcome{Phone: rec.Phone, Cause: res.Status}
	if res.Status == domain.DirectoryOK && res.Profile != nil {
		outcome.Status = domain.RestoreRestored
		outcome.Profile = res.Profile
	} else {
		r.log.Info().
			Err(res.Err).
			Str("phone", domain.MaskPhone(rec.Phone)).
			Str("directory", res.Status.String()).
			Msg("session could not be revalidated; clearing")
		if err := sessions.Clear(ctx); err != nil {
			r.log.Error().Err(err).Msg("failed to clear session record")
		}
		outcome.Status = domain.RestoreInvalidated
	}

	r.metrics.SessionRestored(outcome.Status)
	r.record(domain.AuthEvent{
		Kind:      domain.EventRestore,
		Phone:     rec.Phone,
		Outcome:   outcome.Status.String(),
		Path:      domain.PathSession,
		Directory: res.Status.String(),
	})
	return outcome, nil
}

// Logout drops the session record and the primary principal.
func (r *Reconciler) Logout(ctx context.Context, sessions ports.SessionStore, principal *domain.Principal) error {
	var phone string
	if rec, err := sessions.Load(ctx); err == nil && rec != nil {
		phone = rec.Phone
	}
	if err := sessions.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if r.identity != nil && principal != nil {
		r.identity.SignOut(ctx, principal)
	}
	if phone != "" {
		r.record(domain.AuthEvent{Kind: domain.EventLogout, Phone: phone, Outcome: "signed_out"})
	}
	return nil
}
