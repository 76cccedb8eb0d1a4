// Package identity implements ports.IdentityProvider against the Firebase
// Identity Toolkit REST API.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

const (
	DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTimeout = 20 * time.Second
	maxBodyBytes   = 1 << 20
	backendName    = "identity"
)

// Provider error codes, as returned in error.message.
const (
	codeEmailNotFound      = "EMAIL_NOT_FOUND"
	codeInvalidPassword    = "INVALID_PASSWORD"
	codeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	codeUserDisabled       = "USER_DISABLED"
	codeEmailExists        = "EMAIL_EXISTS"
	codeCredentialTooOld   = "CREDENTIAL_TOO_OLD_LOGIN_AGAIN"
	codeTokenExpired       = "TOKEN_EXPIRED"
	codeInvalidIDToken     = "INVALID_ID_TOKEN"
	codeUserNotFound       = "USER_NOT_FOUND"
)

var errMalformed = errors.New("identity: malformed response")

// Config configures a Firebase provider.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Firebase implements ports.IdentityProvider.
type Firebase struct {
	base     string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	parser   *jwt.Parser
	observer ports.CallObserver
	log      zerolog.Logger
}

var _ ports.IdentityProvider = (*Firebase)(nil)

// Option customises a Firebase provider.
type Option func(*Firebase)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Firebase) { f.http = hc }
}

// WithObserver reports every call's latency and result.
func WithObserver(o ports.CallObserver) Option {
	return func(f *Firebase) { f.observer = o }
}

// NewFirebase returns a provider for cfg.
func NewFirebase(cfg Config, log zerolog.Logger, opts ...Option) *Firebase {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Firebase{
		base:    base,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		http:    &http.Client{},
		parser:  jwt.NewParser(),
		log:     log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type passwordRequest struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password"`
	IDToken           string `json:"idToken,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	IDToken   string `json:"idToken"`
	Email     string `json:"email"`
	LocalID   string `json:"localId"`
	ExpiresIn string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn exchanges the synthetic credentials for a principal.
func (f *Firebase) SignIn(ctx context.Context, syntheticID, syntheticSecret string) domain.IdentityResult {
	return f.exchange(ctx, "accounts:signInWithPassword", passwordRequest{
		Email:             syntheticID,
		Password:          syntheticSecret,
		ReturnSecureToken: true,
	}, signInStatus)
}

// Register creates an account for the synthetic credentials.
func (f *Firebase) Register(ctx context.Context, syntheticID, syntheticSecret string) domain.IdentityResult {
	return f.exchange(ctx, "accounts:signUp", passwordRequest{
		Email:             syntheticID,
		Password:          syntheticSecret,
		ReturnSecureToken: true,
	}, registerStatus)
}

// ChangeSecret replaces the password of the signed-in principal.
func (f *Firebase) ChangeSecret(ctx context.Context, principal *domain.Principal, newSecret string) domain.IdentityResult {
	if principal == nil || principal.IDToken == "" {
		return domain.IdentityResult{Status: domain.IdentityRequiresRecentAuth}
	}
	return f.exchange(ctx, "accounts:update", passwordRequest{
		IDToken:           principal.IDToken,
		Password:          newSecret,
		ReturnSecureToken: true,
	}, updateStatus)
}

// SignOut is local: ID tokens are bearer tokens and simply stop being used.
func (f *Firebase) SignOut(_ context.Context, principal *domain.Principal) {
	if principal == nil {
		return
	}
	f.log.Debug().Str("uid", principal.UID).Msg("primary principal discarded")
}

func (f *Firebase) exchange(ctx context.Context, method string, body passwordRequest, classify func(string) domain.IdentityStatus) domain.IdentityResult {
	start := time.Now()
	res := f.post(ctx, method, body, classify)
	if f.observer != nil {
		f.observer.ObserveCall(backendName, method, res.Status.String(), time.Since(start))
	}
	return res
}

func (f *Firebase) post(ctx context.Context, method string, body passwordRequest, classify func(string) domain.IdentityStatus) domain.IdentityResult {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return transport(fmt.Errorf("identity: encode: %w", err))
	}
	endpoint := f.base + "/" + method + "?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return transport(fmt.Errorf("identity: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return transport(fmt.Errorf("identity %s: %w", method, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transport(fmt.Errorf("identity %s: read body: %w", method, err))
	}

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if err := json.Unmarshal(raw, &er); err != nil || er.Error.Message == "" {
			return transport(fmt.Errorf("%w: status %d", errMalformed, resp.StatusCode))
		}
		code := errorCode(er.Error.Message)
		status := classify(code)
		res := domain.IdentityResult{Status: status}
		if status == domain.IdentityTransportError {
			res.Err = fmt.Errorf("identity %s: %s", method, er.Error.Message)
		}
		return res
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil || tr.IDToken == "" {
		return transport(errMalformed)
	}
	return domain.IdentityResult{Status: domain.IdentityOK, Principal: f.principal(tr)}
}

// principal reads uid and expiry from the ID token. The token came straight
// from the provider over TLS, so its signature is not checked here.
func (f *Firebase) principal(tr tokenResponse) *domain.Principal {
	p := &domain.Principal{UID: tr.LocalID, Email: tr.Email, IDToken: tr.IDToken}

	claims := jwt.MapClaims{}
	if _, _, err := f.parser.ParseUnverified(tr.IDToken, claims); err == nil {
		if uid, ok := claims["user_id"].(string); ok && uid != "" {
			p.UID = uid
		} else if sub, err := claims.GetSubject(); err == nil && sub != "" && p.UID == "" {
			p.UID = sub
		}
		if email, ok := claims["email"].(string); ok && p.Email == "" {
			p.Email = email
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			p.ExpiresAt = exp.Time
		}
	}
	if p.ExpiresAt.IsZero() {
		if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil {
			p.ExpiresAt = time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return p
}

// errorCode strips the optional " : detail" suffix the provider appends.
func errorCode(message string) string {
	code, _, _ := strings.Cut(message, " ")
	return strings.TrimSpace(code)
}

func transport(err error) domain.IdentityResult {
	return domain.IdentityResult{Status: domain.IdentityTransportError, Err: err}
}

func signInStatus(code string) domain.IdentityStatus {
	switch code {
	case codeEmailNotFound:
		return domain.IdentityNotRegistered
	case codeInvalidPassword, codeInvalidCredentials, codeUserDisabled:
		return domain.IdentityInvalidCredential
	default:
		return domain.IdentityTransportError
	}
}

func registerStatus(code string) domain.IdentityStatus {
	if code == codeEmailExists {
		return domain.IdentityAlreadyRegistered
	}
	return domain.IdentityTransportError
}

func updateStatus(code string) domain.IdentityStatus {
	switch code {
	case codeCredentialTooOld, codeTokenExpired, codeInvalidIDToken, codeUserNotFound:
		return domain.IdentityRequiresRecentAuth
	default:
		return domain.IdentityTransportError
	}
}
