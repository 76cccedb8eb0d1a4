package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
)

type captureRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	fail   bool
}

func (r *captureRepo) InsertAuthEvent(_ context.Context, event domain.AuthEvent) error {
	if r.fail {
		return errors.New("mongo down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func TestDispatcher_PreservesPerPhoneOrder(t *testing.T) {
	repo := &captureRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		d.Record(domain.AuthEvent{ID: strconv.Itoa(i), Kind: domain.EventLogin, Phone: "08011112222"})
		d.Record(domain.AuthEvent{ID: "other-" + strconv.Itoa(i), Kind: domain.EventRestore, Phone: "08033334444"})
	}
	cancel()
	d.Wait()

	if len(repo.events) != 100 {
		t.Fatalf("expected 100 events, got %d", len(repo.events))
	}
	next := 0
	for _, ev := range repo.events {
		if ev.Phone != "08011112222" {
			continue
		}
		if ev.ID != strconv.Itoa(next) {
			t.Fatalf("out of order: expected %d, got %s", next, ev.ID)
		}
		next++
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, &captureRepo{}, zerolog.Nop())
	drops := 0
	d.OnDrop(func() { drops++ })

	// Not started: the shard fills up.
	for i := 0; i < channelBuffer+3; i++ {
		d.Record(domain.AuthEvent{Phone: "08011112222"})
	}
	if drops != 3 {
		t.Fatalf("expected 3 drops, got %d", drops)
	}
}

func TestDispatcher_InsertFailureIsNonFatal(t *testing.T) {
	d := NewDispatcher(1, &captureRepo{fail: true}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.Record(domain.AuthEvent{Phone: "08011112222"})
	cancel()
	d.Wait()
}
