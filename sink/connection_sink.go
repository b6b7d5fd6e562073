package sink

import (
	"context"
	"log/slog"

	"whisperline/domain/event"
)

// ConnectionSink is the inbox of one live connection. The delivery side
// writes into the buffered channel; the connection's write pump drains it.
type ConnectionSink struct {
	Events chan event.DomainEvent
	log    *slog.Logger
}

func NewConnectionSink(log *slog.Logger, bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		Events: make(chan event.DomainEvent, bufferSize),
		log:    log,
	}
}

// Consume hands the event to the connection's write pump. It never blocks
// the caller: when the buffer is full the event is dropped, since a
// recipient too slow to drain its own connection must not stall delivery
// to anyone else.
func (s *ConnectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Backpressure on connection, dropping event", "event", e.Name())
		return nil
	}
}
