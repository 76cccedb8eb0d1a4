package ports

import (
	"context"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// PauseGateway reads and submits membership pause requests.
type PauseGateway interface {
	Status(ctx context.Context, phone string) (domain.PauseStatus, error)
	Submit(ctx context.Context, req domain.PauseRequest) error
}

// PauseRequestInput is the DTO passed from the transport layer to
// PauseService.
type PauseRequestInput struct {
	Start  string
	End    string
	Reason string
}

// PauseOverview is what the dashboard shows before a request is made.
type PauseOverview struct {
	Status           domain.PauseStatus
	Restricted       bool
	DaysToExpiration int
}

// PauseService applies pause rules for a signed-in member.
type PauseService interface {
	Overview(ctx context.Context, member domain.MemberProfile) (PauseOverview, error)
	Request(ctx context.Context, member domain.MemberProfile, in PauseRequestInput) (domain.PauseStatus, error)
}
