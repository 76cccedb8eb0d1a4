package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Action string `json:"action"`
	Phone  string `json:"phone"`
}

type answer struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func newTestClient(url string, timeout time.Duration) *Client {
	return New(url, timeout, zerolog.Nop(), WithBackoff(time.Millisecond))
}

func TestClient_PostSendsPlainTextJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/plain;charset=utf-8", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		var in envelope
		assert.NoError(t, json.Unmarshal(raw, &in))
		assert.Equal(t, "verifyPhone", in.Action)
		assert.Equal(t, "08011112222", in.Phone)
		_, _ = w.Write([]byte(`{"success":true,"message":"found"}`))
	}))
	defer srv.Close()

	var out answer
	err := newTestClient(srv.URL, time.Second).Post(context.Background(), "verifyPhone", envelope{Action: "verifyPhone", Phone: "08011112222"}, &out, true)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "found", out.Message)
}

func TestClient_HTMLPageIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("  <!DOCTYPE html><html><body>TypeError: CONFIG is not defined</body></html>"))
	}))
	defer srv.Close()

	var out answer
	err := newTestClient(srv.URL, time.Second).Post(context.Background(), "login", envelope{}, &out, false)
	assert.ErrorIs(t, err, ErrHTMLResponse)
}

func TestClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":tru`))
	}))
	defer srv.Close()

	var out answer
	err := newTestClient(srv.URL, time.Second).Post(context.Background(), "login", envelope{}, &out, false)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_TimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	var out answer
	err := newTestClient(srv.URL, 50*time.Millisecond).Post(context.Background(), "getMember", envelope{}, &out, true)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ReadRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	var out answer
	err := newTestClient(srv.URL, time.Second).Post(context.Background(), "getMember", envelope{}, &out, true)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_WriteNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out answer
	err := newTestClient(srv.URL, time.Second).Post(context.Background(), "setupPin", envelope{}, &out, false)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var out answer
	err := newTestClient(srv.URL, time.Second).Post(ctx, "login", envelope{}, &out, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_GetAppendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "pauseStatus", r.URL.Query().Get("mode"))
		assert.Equal(t, "08011112222", r.URL.Query().Get("userId"))
		assert.Equal(t, "x", r.URL.Query().Get("keep"))
		_, _ = w.Write([]byte(`{"success":true,"message":"Pending"}`))
	}))
	defer srv.Close()

	var out answer
	err := newTestClient(srv.URL+"?keep=x", time.Second).Get(context.Background(), "pauseStatus", url.Values{
		"mode":   {"pauseStatus"},
		"userId": {"08011112222"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Pending", out.Message)
}

type recordingObserver struct {
	results []string
}

func (o *recordingObserver) ObserveCall(_, _, result string, _ time.Duration) {
	o.results = append(o.results, result)
}

func TestClient_ObservesEachAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := New(srv.URL, time.Second, zerolog.Nop(), WithObserver(obs))
	var out answer
	_ = c.Post(context.Background(), "login", envelope{}, &out, false)
	assert.Equal(t, []string{"html"}, obs.results)
}
