package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"whisperline/contract"
	"whisperline/domain/event"
)

// RegistryFanout pushes events straight to the sinks held by the local
// session registry. Pushes are best effort: a sink that went away between
// lookup and push, or that refuses the event, is logged and skipped.
type RegistryFanout struct {
	registry contract.SessionRegistry
	log      *slog.Logger
}

func NewRegistryFanout(log *slog.Logger, registry contract.SessionRegistry) *RegistryFanout {
	return &RegistryFanout{registry: registry, log: log}
}

func (f *RegistryFanout) PushToUser(ctx context.Context, userID string, e event.DomainEvent) {
	for _, sink := range f.registry.ConnectionsFor(userID) {
		if err := sink.Consume(ctx, e); err != nil {
			f.log.Debug(fmt.Sprintf("Dropped %s event", e.Name()),
				"user_id", userID, "error", err)
		}
	}
}

func (f *RegistryFanout) Broadcast(ctx context.Context, e event.DomainEvent) {
	for _, userID := range f.registry.OnlineSnapshot() {
		f.PushToUser(ctx, userID, e)
	}
}
