package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

const pauseDateLayout = "2006-01-02"

type pauseService struct {
	gateway ports.PauseGateway
	log     zerolog.Logger
	now     func() time.Time
}

// NewPauseService returns a PauseService. A nil gateway yields a service that
// reports ErrPauseUnavailable.
func NewPauseService(gateway ports.PauseGateway, log zerolog.Logger) ports.PauseService {
	return &pauseService{gateway: gateway, log: log, now: time.Now}
}

func (s *pauseService) Overview(ctx context.Context, member domain.MemberProfile) (ports.PauseOverview, error) {
	if s.gateway == nil {
		return ports.PauseOverview{}, domain.ErrPauseUnavailable
	}
	now := s.now()
	overview := ports.PauseOverview{Restricted: domain.PauseRestricted(member, now)}
	if days, ok := member.DaysUntilExpiration(now); ok {
		overview.DaysToExpiration = days
	}

	status, err := s.gateway.Status(ctx, member.Phone)
	if err != nil {
		s.log.Warn().Err(err).Str("phone", domain.MaskPhone(member.Phone)).Msg("pause status lookup failed")
		return ports.PauseOverview{}, fmt.Errorf("pause status: %w", domain.ErrTransport)
	}
	overview.Status = status
	return overview, nil
}

func (s *pauseService) Request(ctx context.Context, member domain.MemberProfile, in ports.PauseRequestInput) (domain.PauseStatus, error) {
	if s.gateway == nil {
		return "", domain.ErrPauseUnavailable
	}
	now := s.now()
	if domain.PauseRestricted(member, now) {
		return "", domain.ErrPauseRestricted
	}

	start, err := time.Parse(pauseDateLayout, in.Start)
	if err != nil {
		return "", fmt.Errorf("%w: start date must be YYYY-MM-DD", domain.ErrValidation)
	}
	end, err := time.Parse(pauseDateLayout, in.End)
	if err != nil {
		return "", fmt.Errorf("%w: end date must be YYYY-MM-DD", domain.ErrValidation)
	}

	req := domain.PauseRequest{
		Phone:  member.Phone,
		Name:   member.FullName(),
		Start:  start,
		End:    end,
		Reason: in.Reason,
	}
	if err := req.Validate(now); err != nil {
		return "", err
	}

	if err := s.gateway.Submit(ctx, req); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return "", err
		}
		s.log.Warn().Err(err).Str("phone", domain.MaskPhone(member.Phone)).Msg("pause request failed")
		return "", fmt.Errorf("pause request: %w", domain.ErrTransport)
	}

	s.log.Info().
		Str("phone", domain.MaskPhone(member.Phone)).
		Int("days", req.Days()).
		Str("reason", req.Reason).
		Msg("pause requested")
	return domain.PausePending, nil
}
