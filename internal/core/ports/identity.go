package ports

import (
	"context"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// IdentityProvider is the primary, faster authentication backend. It only
// knows synthetic email/password pairs and has no notion of membership.
type IdentityProvider interface {
	SignIn(ctx context.Context, syntheticID, syntheticSecret string) domain.IdentityResult
	Register(ctx context.Context, syntheticID, syntheticSecret string) domain.IdentityResult
	ChangeSecret(ctx context.Context, principal *domain.Principal, newSecret string) domain.IdentityResult
	// SignOut drops provider-side state for the principal. It never fails
	// the caller's flow.
	SignOut(ctx context.Context, principal *domain.Principal)
}
