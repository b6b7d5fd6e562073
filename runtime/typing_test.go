package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"whisperline/domain/event"
)

// captureFanout records every pushed event, keyed by recipient.
type captureFanout struct {
	mu     sync.Mutex
	pushed []event.DomainEvent
}

func (f *captureFanout) PushToUser(_ context.Context, _ string, e event.DomainEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, e)
}

func (f *captureFanout) Broadcast(ctx context.Context, e event.DomainEvent) {
	f.PushToUser(ctx, "", e)
}

func (f *captureFanout) events() []event.DomainEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]event.DomainEvent(nil), f.pushed...)
}

func TestTyping_Start_Emits_Single_Event_When_Coalesced(t *testing.T) {
	req := require.New(t)
	fanout := &captureFanout{}
	coordinator := NewTypingCoordinator(slog.Default(), fanout, time.Hour)
	sender, receiver := uuid.NewString(), uuid.NewString()

	// When the sender types three times in quick succession
	coordinator.Start(context.Background(), sender, receiver)
	coordinator.Start(context.Background(), sender, receiver)
	coordinator.Start(context.Background(), sender, receiver)

	// Then the receiver got exactly one typing event
	events := fanout.events()
	req.Len(events, 1)
	req.Equal(event.TypingStarted{SenderID: sender, ReceiverID: receiver}, events[0])
}

func TestTyping_Explicit_Stop_Emits_Once_And_Cancels_Expiry(t *testing.T) {
	req := require.New(t)
	fanout := &captureFanout{}
	ttl := 50 * time.Millisecond
	coordinator := NewTypingCoordinator(slog.Default(), fanout, ttl)
	sender, receiver := uuid.NewString(), uuid.NewString()

	// Given an active typing signal
	coordinator.Start(context.Background(), sender, receiver)

	// When the sender stops explicitly before expiry
	coordinator.Stop(context.Background(), sender, receiver)

	// And the expiry window passes
	time.Sleep(3 * ttl)

	// Then exactly one stop event went out, with no late duplicate
	events := fanout.events()
	req.Len(events, 2)
	req.Equal(event.TypingStarted{SenderID: sender, ReceiverID: receiver}, events[0])
	req.Equal(event.TypingStopped{SenderID: sender, ReceiverID: receiver}, events[1])
}

func TestTyping_Stop_Without_Start_Is_Silent(t *testing.T) {
	req := require.New(t)
	fanout := &captureFanout{}
	coordinator := NewTypingCoordinator(slog.Default(), fanout, time.Hour)

	// When stopping an idle pair
	coordinator.Stop(context.Background(), uuid.NewString(), uuid.NewString())

	// Then no event was emitted
	req.Empty(fanout.events())
}

func TestTyping_Expiry_Emits_Stop(t *testing.T) {
	req := require.New(t)
	fanout := &captureFanout{}
	ttl := 50 * time.Millisecond
	coordinator := NewTypingCoordinator(slog.Default(), fanout, ttl)
	sender, receiver := uuid.NewString(), uuid.NewString()

	// Given a typing signal with no explicit stop
	coordinator.Start(context.Background(), sender, receiver)

	// When the expiry window passes
	time.Sleep(3 * ttl)

	// Then the coordinator auto-emitted the stop
	events := fanout.events()
	req.Len(events, 2)
	req.Equal(event.TypingStopped{SenderID: sender, ReceiverID: receiver}, events[1])

	// And a later explicit stop is a no-op
	coordinator.Stop(context.Background(), sender, receiver)
	req.Len(fanout.events(), 2)
}

func TestTyping_Restart_Extends_Expiry(t *testing.T) {
	req := require.New(t)
	fanout := &captureFanout{}
	ttl := 80 * time.Millisecond
	coordinator := NewTypingCoordinator(slog.Default(), fanout, ttl)
	sender, receiver := uuid.NewString(), uuid.NewString()

	// Given a typing signal refreshed by a keystroke halfway through
	coordinator.Start(context.Background(), sender, receiver)
	time.Sleep(ttl / 2)
	coordinator.Start(context.Background(), sender, receiver)

	// When the original window would have elapsed
	time.Sleep(ttl/2 + 20*time.Millisecond)

	// Then no stop was emitted yet, the timer restarted from the last call
	req.Len(fanout.events(), 1)

	// And the refreshed window does expire
	time.Sleep(ttl)
	events := fanout.events()
	req.Len(events, 2)
	req.Equal(event.TypingStopped{SenderID: sender, ReceiverID: receiver}, events[1])
}
