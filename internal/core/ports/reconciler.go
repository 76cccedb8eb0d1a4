package ports

import (
	"context"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// SetupInput carries a PIN setup or reset request.
type SetupInput struct {
	Phone   string
	Pin     string
	IsReset bool
	// Principal is the currently signed-in primary principal, if any.
	Principal *domain.Principal
}

// AuthReconciler resolves the two identity backends into one outcome per
// user action. The returned error is reserved for failures that never reach
// a backend: validation, overlapping operations and cancellation.
type AuthReconciler interface {
	Login(ctx context.Context, sessions SessionStore, phone, pin string) (domain.LoginOutcome, error)
	BeginReset(ctx context.Context, phone string) (domain.ResetOutcome, error)
	SetupPin(ctx context.Context, sessions SessionStore, in SetupInput) (domain.SetupOutcome, error)
	Restore(ctx context.Context, sessions SessionStore) (domain.RestoreOutcome, error)
	Logout(ctx context.Context, sessions SessionStore, principal *domain.Principal) error
}
