// Package pause adapts the membership pause web app to ports.PauseGateway.
package pause

import (
	"context"
	"fmt"
	"net/url"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

const (
	modeStatus  = "pauseStatus"
	modeRequest = "pauseRequest"
	dateLayout  = "2006-01-02"
)

// Transport is the subset of *gateway.Client the pause client needs.
type Transport interface {
	Post(ctx context.Context, action string, payload any, out any, retryRead bool) error
	Get(ctx context.Context, action string, query url.Values, out any) error
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type submitRequest struct {
	Mode   string `json:"mode"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client implements ports.PauseGateway.
type Client struct {
	tr Transport
}

var _ ports.PauseGateway = (*Client)(nil)

func New(tr Transport) *Client {
	return &Client{tr: tr}
}

// Status returns the state of the member's latest pause request. An
// unsuccessful answer means no request is on file.
func (c *Client) Status(ctx context.Context, phone string) (domain.PauseStatus, error) {
	var resp statusResponse
	err := c.tr.Get(ctx, modeStatus, url.Values{
		"mode":   {modeStatus},
		"userId": {domain.NormalizePhone(phone)},
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return domain.PauseNone, nil
	}
	return domain.ParsePauseStatus(resp.Status), nil
}

// Submit files a pause request. A refusal from the web app is reported as a
// validation error carrying its message.
func (c *Client) Submit(ctx context.Context, req domain.PauseRequest) error {
	var resp submitResponse
	err := c.tr.Post(ctx, modeRequest, submitRequest{
		Mode:   modeRequest,
		UserID: domain.NormalizePhone(req.Phone),
		Name:   req.Name,
		Start:  req.Start.Format(dateLayout),
		End:    req.End.Format(dateLayout),
		Reason: req.Reason,
	}, &resp, false)
	if err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "failed to submit request"
		}
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	}
	return nil
}
