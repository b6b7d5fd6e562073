package runtime

import (
	"sort"
	"sync"

	"whisperline/contract"
	"whisperline/domain/event"
)

type sinkSet map[contract.EventSink]struct{}

// Registry tracks which identities currently hold live connections.
// One user may hold several sinks at once (multi-tab, multi-device), so
// sessions maps to a set rather than a single handle. The reverse owners
// map lets Unregister work from the sink alone, which is all a closing
// connection knows about itself.
//
// Presence is derived, never cached: a user is online iff their sink set
// is non-empty. Every offline<->online flip is published on the presence
// channel for the fanout worker to broadcast.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]sinkSet
	owners   map[contract.EventSink]string
	presence chan event.PresenceChanged
}

func NewRegistry(presenceBufferSize int) *Registry {
	return &Registry{
		sessions: make(map[string]sinkSet),
		owners:   make(map[contract.EventSink]string),
		presence: make(chan event.PresenceChanged, presenceBufferSize),
	}
}

// PresenceEvents exposes the flip stream consumed by the presence fanout
// worker. Events are dropped when the buffer is full rather than blocking
// a connecting or disconnecting client.
func (r *Registry) PresenceEvents() <-chan event.PresenceChanged {
	return r.presence
}

// Register adds the sink under the identity. Registering the same sink
// twice is idempotent; registering it under a new identity moves it, so a
// sink appears under exactly one identity at a time. The first sink of an
// identity flips it online.
func (r *Registry) Register(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owners[sink]; ok {
		if owner == userID {
			return
		}
		r.removeLocked(owner, sink)
	}

	set, ok := r.sessions[userID]
	if !ok {
		set = make(sinkSet)
		r.sessions[userID] = set
	}
	wasOffline := len(set) == 0
	set[sink] = struct{}{}
	r.owners[sink] = userID

	if wasOffline {
		r.publishLocked(userID, true)
	}
}

// Unregister removes the sink from whatever identity owns it. Removing an
// unknown sink is a no-op: disconnect races are expected, not errors.
// Emptying an identity's set flips it offline and drops the entry.
func (r *Registry) Unregister(sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[sink]
	if !ok {
		return
	}
	delete(r.owners, sink)
	r.removeLocked(userID, sink)
}

func (r *Registry) removeLocked(userID string, sink contract.EventSink) {
	set := r.sessions[userID]
	delete(set, sink)
	if len(set) == 0 {
		delete(r.sessions, userID)
		r.publishLocked(userID, false)
	}
}

// ConnectionsFor returns a snapshot of the identity's live sinks.
// The slice stays valid after concurrent disconnects; the sinks in it
// may not.
func (r *Registry) ConnectionsFor(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(set))
	for sink := range set {
		sinks = append(sinks, sink)
	}
	return sinks
}

// IsOnline derives the presence of a single identity at call time.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}

// OnlineSnapshot returns the sorted set of identities currently holding
// at least one connection.
func (r *Registry) OnlineSnapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineSnapshotLocked()
}

func (r *Registry) onlineSnapshotLocked() []string {
	ids := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) publishLocked(userID string, online bool) {
	evt := event.PresenceChanged{
		UserID:        userID,
		Online:        online,
		OnlineUserIDs: r.onlineSnapshotLocked(),
	}
	select {
	case r.presence <- evt:
	default:
		// A full buffer means the fanout worker is behind; the next flip
		// carries the complete snapshot anyway.
	}
}
