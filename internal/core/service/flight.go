package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

// defaultFlightTimeout bounds a shared login/setup call. It covers a primary
// sign-in plus two directory round trips at their maximum timeouts.
const defaultFlightTimeout = 90 * time.Second

// flightGuard allows at most one login/setup operation per phone at a time.
// Identical submissions (same operation key) share the in-flight call; a
// different operation for the same phone is refused.
//
// The shared call runs on a context detached from every caller, bounded by
// timeout. A caller whose own context ends stops waiting with
// ErrOperationCancelled; the others still get the result.
type flightGuard struct {
	group   singleflight.Group
	timeout time.Duration
	mu      sync.Mutex
	active  map[string]*flight
}

type flight struct {
	key     string
	callers int
}

func newFlightGuard() *flightGuard {
	return &flightGuard{
		timeout: defaultFlightTimeout,
		active:  make(map[string]*flight),
	}
}

func (g *flightGuard) do(ctx context.Context, phone, key string, fn func(context.Context) any) (any, error) {
	if err := g.enter(phone, key); err != nil {
		return nil, err
	}
	defer g.leave(phone)

	ch := g.group.DoChan(phone+"|"+key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return fn(flightCtx), nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, domain.ErrOperationCancelled
	}
}

func (g *flightGuard) enter(phone, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, busy := g.active[phone]
	if !busy {
		g.active[phone] = &flight{key: key, callers: 1}
		return nil
	}
	if f.key != key {
		return domain.ErrOperationInProgress
	}
	f.callers++
	return nil
}

func (g *flightGuard) leave(phone string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.active[phone]
	if !ok {
		return
	}
	f.callers--
	if f.callers <= 0 {
		delete(g.active, phone)
	}
}
