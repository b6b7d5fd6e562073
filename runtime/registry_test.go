package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"whisperline/domain/event"
)

type Sink struct {
	id int
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Register_One_User_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(16)
	userID := uuid.NewString()
	sink := &Sink{}

	// Given no user is connected
	req.Empty(registry.OnlineSnapshot())
	req.False(registry.IsOnline(userID))

	// When a user registers a connection
	registry.Register(userID, sink)

	// Then the user is online with exactly that connection
	req.True(registry.IsOnline(userID))
	req.Equal([]string{userID}, registry.OnlineSnapshot())
	req.Len(registry.ConnectionsFor(userID), 1)
	req.Contains(registry.ConnectionsFor(userID), sink)
}

func TestRegistry_Register_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(16)
	userID := uuid.NewString()
	sink := &Sink{}

	// When the same connection registers twice
	registry.Register(userID, sink)
	registry.Register(userID, sink)

	// Then it is tracked once
	req.Len(registry.ConnectionsFor(userID), 1)
}

func TestRegistry_Register_Under_New_Identity_Moves_The_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(16)
	alice, bob := uuid.NewString(), uuid.NewString()
	sink := &Sink{}

	// Given a connection registered under alice
	registry.Register(alice, sink)

	// When the same connection registers under bob
	registry.Register(bob, sink)

	// Then it lives under bob only and alice flipped offline
	req.False(registry.IsOnline(alice))
	req.Nil(registry.ConnectionsFor(alice))
	req.Equal([]string{bob}, registry.OnlineSnapshot())
	req.Contains(registry.ConnectionsFor(bob), sink)

	// And unregistering removes it from bob
	registry.Unregister(sink)
	req.Empty(registry.OnlineSnapshot())
}

func TestRegistry_One_User_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(16)
	userID := uuid.NewString()
	sink1 := &Sink{id: 1}
	sink2 := &Sink{id: 2}

	// When the same user registers from two tabs
	registry.Register(userID, sink1)
	registry.Register(userID, sink2)

	// Then both connections are live under one identity
	req.Len(registry.ConnectionsFor(userID), 2)
	req.Equal([]string{userID}, registry.OnlineSnapshot())

	// When one tab closes
	registry.Unregister(sink1)

	// Then the user stays online through the other one
	req.True(registry.IsOnline(userID))
	req.Len(registry.ConnectionsFor(userID), 1)
	req.Contains(registry.ConnectionsFor(userID), sink2)
}

func TestRegistry_Unregister_Last_Connection_Flips_Offline(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(16)
	userID := uuid.NewString()
	sink := &Sink{}

	// Given a connected user
	registry.Register(userID, sink)

	// When its only connection unregisters
	registry.Unregister(sink)

	// Then no trace of the user is left
	req.False(registry.IsOnline(userID))
	req.Empty(registry.OnlineSnapshot())
	req.Nil(registry.ConnectionsFor(userID))
}

func TestRegistry_Unregister_Unknown_Connection_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(16)
	userID := uuid.NewString()
	registry.Register(userID, &Sink{id: 1})

	// When an unknown connection unregisters (disconnect race)
	registry.Unregister(&Sink{id: 2})

	// Then nothing changed
	req.True(registry.IsOnline(userID))
	req.Len(registry.ConnectionsFor(userID), 1)
}

func TestRegistry_Presence_Flips_Are_Published(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(16)
	userID := uuid.NewString()
	sink1 := &Sink{id: 1}
	sink2 := &Sink{id: 2}

	// When a user connects twice and fully disconnects
	registry.Register(userID, sink1)
	registry.Register(userID, sink2)
	registry.Unregister(sink1)
	registry.Unregister(sink2)

	// Then exactly two flips were emitted: online, then offline
	online := <-registry.PresenceEvents()
	req.Equal(userID, online.UserID)
	req.True(online.Online)
	req.Equal([]string{userID}, online.OnlineUserIDs)

	offline := <-registry.PresenceEvents()
	req.Equal(userID, offline.UserID)
	req.False(offline.Online)
	req.Empty(offline.OnlineUserIDs)

	select {
	case extra := <-registry.PresenceEvents():
		req.Failf("unexpected presence event", "%+v", extra)
	default:
	}
}
