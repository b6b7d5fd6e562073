package workers

import (
	"context"
	"log/slog"

	"whisperline/contract"
	"whisperline/domain/event"
)

// PresenceFanout drains the registry's presence flip stream and broadcasts
// each flip to every connected client, so contact lists render live
// online dots without polling.
//
// Best-effort fan-out with no delivery, ordering, durability or retry
// guarantees: every event carries the full online set, so a dropped flip
// is corrected by the next one.
type PresenceFanout struct {
	log    *slog.Logger
	flips  <-chan event.PresenceChanged
	fanout contract.Fanout
}

func NewPresenceFanout(log *slog.Logger, flips <-chan event.PresenceChanged,
	fanout contract.Fanout) *PresenceFanout {
	return &PresenceFanout{log: log, flips: flips, fanout: fanout}
}

func (w *PresenceFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case flip := <-w.flips:
			w.log.Debug("Presence changed",
				"user_id", flip.UserID, "online", flip.Online)
			w.fanout.Broadcast(ctx, flip)
		}
	}
}
