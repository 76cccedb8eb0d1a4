// Package gateway speaks to the remote-procedure web app that fronts the
// member directory: a single URL accepting JSON action envelopes posted as
// text/plain, answering with JSON (or an HTML error page when the script
// behind it crashes).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

const (
	// DefaultTimeout bounds one gateway call including redirects.
	DefaultTimeout = 30 * time.Second
	defaultBackoff = 300 * time.Millisecond
	maxBodyBytes   = 1 << 20
)

var (
	ErrTimeout           = errors.New("gateway: request timed out")
	ErrHTMLResponse      = errors.New("gateway: backend returned an HTML error page")
	ErrMalformedResponse = errors.New("gateway: backend returned invalid data")
	ErrUnexpectedStatus  = errors.New("gateway: unexpected HTTP status")
)

// Client posts action envelopes to one gateway URL.
type Client struct {
	url      string
	name     string
	http     *http.Client
	timeout  time.Duration
	backoff  time.Duration
	observer ports.CallObserver
	log      zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver reports every call's latency and result.
func WithObserver(o ports.CallObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithBackoff sets the pause before retrying a read.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithName labels the backend in logs and metrics.
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// New returns a Client for endpoint. A non-positive timeout uses
// DefaultTimeout.
func New(endpoint string, timeout time.Duration, log zerolog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		url:     endpoint,
		name:    "directory",
		http:    &http.Client{},
		timeout: timeout,
		backoff: defaultBackoff,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends payload as a text/plain JSON body and decodes the JSON answer
// into out. Reads (retryRead=true) are retried once on connection failures
// and 5xx answers; a timed-out call is never retried.
func (c *Client) Post(ctx context.Context, action string, payload any, out any, retryRead bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: encode %s: %w", action, err)
	}
	return c.do(ctx, action, retryRead, out, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		// A simple request: the web app cannot answer CORS preflights.
		req.Header.Set("Content-Type", "text/plain;charset=utf-8")
		return req, nil
	})
}

// Get issues a GET with query appended to the gateway URL.
func (c *Client) Get(ctx context.Context, action string, query url.Values, out any) error {
	return c.do(ctx, action, true, out, func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(c.url)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
}

func (c *Client) do(ctx context.Context, action string, retry bool, out any, build func(context.Context) (*http.Request, error)) error {
	attempts := 1
	if retry {
		attempts = 2
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		var retryable bool
		retryable, err = c.once(ctx, build, out)
		c.observe(action, err, time.Since(start))
		if err == nil {
			return nil
		}
		if !retryable || attempt == attempts || ctx.Err() != nil {
			break
		}

		c.log.Debug().Err(err).Str("backend", c.name).Str("action", action).Msg("retrying gateway read")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	return fmt.Errorf("%s %s: %w", c.name, action, err)
}

// once performs one attempt and reports whether a failure may be retried.
func (c *Client) once(ctx context.Context, build func(context.Context) (*http.Request, error), out any) (bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(attemptCtx)
	if err != nil {
		return false, fmt.Errorf("gateway: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return false, ctx.Err()
		case errors.Is(attemptCtx.Err(), context.DeadlineExceeded), isTimeout(err):
			return false, ErrTimeout
		default:
			return true, fmt.Errorf("gateway: %w", err)
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return false, ErrTimeout
		}
		return true, fmt.Errorf("gateway: read body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return true, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if looksLikeHTML(raw) {
		return false, ErrHTMLResponse
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return false, nil
}

func (c *Client) observe(action string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveCall(c.name, action, Classify(err), elapsed)
}

// Classify names an error for metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrHTMLResponse):
		return "html"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "connection"
	}
}

func looksLikeHTML(raw []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(raw[:min(len(raw), 64)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
