//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"whisperline/domain/event"
)

// EventSink is one live connection's inbox. Consume must never block the
// caller on a slow connection: implementations drop rather than queue
// unboundedly.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// SessionRegistry maps an authenticated identity to its live connections.
// A sink belongs to exactly one identity at a time; an identity with no
// sinks left is removed entirely.
type SessionRegistry interface {
	Register(userID string, sink EventSink)
	Unregister(sink EventSink)
	ConnectionsFor(userID string) []EventSink
	IsOnline(userID string) bool
	OnlineSnapshot() []string
}

// Fanout pushes events to live connections. The in-memory implementation
// reads the session registry directly; a multi-process deployment would
// swap in a broker-backed one behind the same interface.
type Fanout interface {
	PushToUser(ctx context.Context, userID string, e event.DomainEvent)
	Broadcast(ctx context.Context, e event.DomainEvent)
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type Supervisor interface {
	Add(worker ...Worker) Supervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision purposes, avoiding the need for manual
// naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
