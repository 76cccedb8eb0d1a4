package ports

import (
	"context"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// DirectoryClient talks to the authoritative member directory. Every method
// is bounded by the client's timeout and returns a classified result; the
// error channel is folded into DirectoryTransportError.
type DirectoryClient interface {
	VerifyExists(ctx context.Context, phone string) domain.DirectoryResult
	Login(ctx context.Context, phone, digest string) domain.DirectoryResult
	SetupOrResetPin(ctx context.Context, phone, digest string) domain.DirectoryResult
	FetchProfile(ctx context.Context, phone string) domain.DirectoryResult
	SaveNotificationToken(ctx context.Context, phone, token string) domain.DirectoryResult
}
