package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"whisperline/contract"
	"whisperline/domain/event"
)

// DefaultTypingTTL matches the client-side keystroke debounce window.
const DefaultTypingTTL = 3 * time.Second

type pairKey struct {
	senderID   string
	receiverID string
}

type pairState struct {
	timer *time.Timer
	gen   uint64
}

// TypingCoordinator holds the Idle -> Typing -> Idle state machine for
// every (sender, recipient) pair. State lives only in this process and is
// lost harmlessly on restart.
//
// Start coalesces: repeated keystroke-driven calls while already Typing
// re-arm the expiry timer without emitting another wire event. Stop and
// timer expiry both emit exactly one stopTyping. The generation counter
// keeps a timer that fires concurrently with a re-arm from emitting a
// stale stop.
type TypingCoordinator struct {
	mu     sync.Mutex
	pairs  map[pairKey]*pairState
	ttl    time.Duration
	fanout contract.Fanout
	log    *slog.Logger
}

func NewTypingCoordinator(log *slog.Logger, fanout contract.Fanout, ttl time.Duration) *TypingCoordinator {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingCoordinator{
		pairs:  make(map[pairKey]*pairState),
		ttl:    ttl,
		fanout: fanout,
		log:    log,
	}
}

// Start transitions the pair to Typing and (re)arms the expiry timer.
// Only the Idle -> Typing edge pushes a typing event to the recipient.
func (c *TypingCoordinator) Start(ctx context.Context, senderID, receiverID string) {
	key := pairKey{senderID: senderID, receiverID: receiverID}

	c.mu.Lock()
	state, active := c.pairs[key]
	if active {
		state.timer.Stop()
		state.gen++
		state.timer = c.armLocked(key, state.gen)
		c.mu.Unlock()
		return
	}
	state = &pairState{}
	state.timer = c.armLocked(key, state.gen)
	c.pairs[key] = state
	c.mu.Unlock()

	c.fanout.PushToUser(ctx, receiverID, event.TypingStarted{
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
}

// Stop cancels the pending expiry and transitions the pair back to Idle.
// Stopping an Idle pair is a no-op with no wire event.
func (c *TypingCoordinator) Stop(ctx context.Context, senderID, receiverID string) {
	key := pairKey{senderID: senderID, receiverID: receiverID}

	c.mu.Lock()
	state, active := c.pairs[key]
	if active {
		state.timer.Stop()
		delete(c.pairs, key)
	}
	c.mu.Unlock()

	if !active {
		return
	}
	c.fanout.PushToUser(ctx, receiverID, event.TypingStopped{
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
}

func (c *TypingCoordinator) armLocked(key pairKey, gen uint64) *time.Timer {
	return time.AfterFunc(c.ttl, func() {
		c.expire(key, gen)
	})
}

func (c *TypingCoordinator) expire(key pairKey, gen uint64) {
	c.mu.Lock()
	state, active := c.pairs[key]
	if !active || state.gen != gen {
		// Stopped or re-armed while this timer was in flight.
		c.mu.Unlock()
		return
	}
	delete(c.pairs, key)
	c.mu.Unlock()

	c.log.Debug("Typing signal expired",
		"sender_id", key.senderID, "receiver_id", key.receiverID)
	c.fanout.PushToUser(context.Background(), key.receiverID, event.TypingStopped{
		SenderID:   key.senderID,
		ReceiverID: key.receiverID,
	})
}
