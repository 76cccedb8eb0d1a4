// Package directory adapts the member directory gateway to
// ports.DirectoryClient.
package directory

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
	"github.com/crossfitlagos/member-portal/internal/infrastructure/gateway"
)

// Gateway actions.
const (
	actionVerifyPhone = "verifyPhone"
	actionLogin       = "login"
	actionSetupPin    = "setupPin"
	actionGetMember   = "getMember"
	actionSaveToken   = "saveNotificationToken"
)

// errorInvalidPin is the error code the gateway uses for a wrong PIN.
const errorInvalidPin = "invalidPin"

// Poster is the subset of *gateway.Client the directory needs.
type Poster interface {
	Post(ctx context.Context, action string, payload any, out any, retryRead bool) error
}

type request struct {
	Action    string `json:"action"`
	Phone     string `json:"phone"`
	HashedPin string `json:"hashedPin,omitempty"`
	Token     string `json:"token,omitempty"`
}

type response struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	Member     *member `json:"member"`
	NeedsPin   bool    `json:"needsPin"`
	InvalidPin bool    `json:"invalidPin"`
	Error      string  `json:"error"`
}

// member is the record as the sheet behind the gateway serialises it.
// Numeric-looking cells may arrive as numbers.
type member struct {
	FirstName      cell `json:"firstName"`
	LastName       cell `json:"lastName"`
	Email          cell `json:"email"`
	Phone          cell `json:"phone"`
	Package        cell `json:"package"`
	Amount         cell `json:"amount"`
	Duration       cell `json:"duration"`
	StartDate      cell `json:"startDate"`
	ExpirationDate cell `json:"expirationDate"`
	Status         cell `json:"status"`
	PauseDays      cell `json:"pauseDays"`
}

// cell accepts a JSON string, number, bool or null as text.
type cell string

func (c *cell) UnmarshalJSON(raw []byte) error {
	if string(raw) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*c = cell(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		*c = cell(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return err
	}
	*c = cell(strconv.FormatBool(b))
	return nil
}

func (m *member) profile() *domain.MemberProfile {
	return &domain.MemberProfile{
		FirstName:      string(m.FirstName),
		LastName:       string(m.LastName),
		Email:          string(m.Email),
		Phone:          domain.NormalizePhone(string(m.Phone)),
		Package:        string(m.Package),
		Amount:         string(m.Amount),
		Duration:       string(m.Duration),
		StartDate:      string(m.StartDate),
		ExpirationDate: string(m.ExpirationDate),
		Status:         string(m.Status),
		PauseDays:      string(m.PauseDays),
	}
}

// Client implements ports.DirectoryClient over the gateway.
type Client struct {
	gw  Poster
	log zerolog.Logger
}

var _ ports.DirectoryClient = (*Client)(nil)

// New returns a directory Client. gw is normally a *gateway.Client.
func New(gw Poster, log zerolog.Logger) *Client {
	return &Client{gw: gw, log: log}
}

func (c *Client) call(ctx context.Context, req request, read bool) (response, error) {
	var resp response
	err := c.gw.Post(ctx, req.Action, req, &resp, read)
	return resp, err
}

func transportError(err error) domain.DirectoryResult {
	return domain.DirectoryResult{Status: domain.DirectoryTransportError, Err: err}
}

// notFound reports whether an unsuccessful answer means the phone is not in
// the directory.
func notFound(resp response) bool {
	msg := strings.ToLower(resp.Message)
	return strings.EqualFold(resp.Error, "notFound") || strings.Contains(msg, "not found")
}

// VerifyExists asks whether phone has a directory record.
func (c *Client) VerifyExists(ctx context.Context, phone string) domain.DirectoryResult {
	resp, err := c.call(ctx, request{Action: actionVerifyPhone, Phone: phone}, true)
	if err != nil {
		return transportError(err)
	}
	if resp.Success {
		return domain.DirectoryResult{Status: domain.DirectoryOK}
	}
	return domain.DirectoryResult{Status: domain.DirectoryNotFound, Reason: resp.Message}
}

// Login checks digest against the stored PIN digest for phone.
func (c *Client) Login(ctx context.Context, phone, digest string) domain.DirectoryResult {
	resp, err := c.call(ctx, request{Action: actionLogin, Phone: phone, HashedPin: digest}, false)
	if err != nil {
		return transportError(err)
	}

	switch {
	case resp.NeedsPin:
		return domain.DirectoryResult{Status: domain.DirectoryNeedsPinSetup}
	case resp.Success && resp.Member != nil:
		return domain.DirectoryResult{Status: domain.DirectoryOK, Profile: resp.Member.profile()}
	case resp.Success:
		c.log.Warn().Str("phone", domain.MaskPhone(phone)).Msg("directory login succeeded without a member record")
		return domain.DirectoryResult{Status: domain.DirectoryTransportError, Reason: "missing member record"}
	case resp.InvalidPin || resp.Error == errorInvalidPin:
		return domain.DirectoryResult{Status: domain.DirectoryInvalidPin}
	case notFound(resp):
		return domain.DirectoryResult{Status: domain.DirectoryNotFound}
	default:
		// The gateway answers a wrong PIN with a bare message more often
		// than with the error code.
		return domain.DirectoryResult{Status: domain.DirectoryInvalidPin, Reason: resp.Message}
	}
}

// SetupOrResetPin writes digest as the PIN digest for phone.
func (c *Client) SetupOrResetPin(ctx context.Context, phone, digest string) domain.DirectoryResult {
	resp, err := c.call(ctx, request{Action: actionSetupPin, Phone: phone, HashedPin: digest}, false)
	if err != nil {
		return transportError(err)
	}
	if resp.Success {
		return domain.DirectoryResult{Status: domain.DirectoryOK}
	}
	reason := resp.Message
	if reason == "" {
		reason = "PIN update rejected"
	}
	return domain.DirectoryResult{Status: domain.DirectoryRejected, Reason: reason}
}

// FetchProfile returns the current membership record for phone.
func (c *Client) FetchProfile(ctx context.Context, phone string) domain.DirectoryResult {
	resp, err := c.call(ctx, request{Action: actionGetMember, Phone: phone}, true)
	if err != nil {
		return transportError(err)
	}
	if resp.Success && resp.Member != nil {
		return domain.DirectoryResult{Status: domain.DirectoryOK, Profile: resp.Member.profile()}
	}
	return domain.DirectoryResult{Status: domain.DirectoryNotFound, Reason: resp.Message}
}

// SaveNotificationToken registers a push token against phone.
func (c *Client) SaveNotificationToken(ctx context.Context, phone, token string) domain.DirectoryResult {
	resp, err := c.call(ctx, request{Action: actionSaveToken, Phone: phone, Token: token}, false)
	if err != nil {
		return transportError(err)
	}
	if resp.Success {
		return domain.DirectoryResult{Status: domain.DirectoryOK}
	}
	if notFound(resp) {
		return domain.DirectoryResult{Status: domain.DirectoryNotFound, Reason: resp.Message}
	}
	return domain.DirectoryResult{Status: domain.DirectoryRejected, Reason: resp.Message}
}

var _ Poster = (*gateway.Client)(nil)
