// Package ws is the live channel: one websocket per browser tab, upgraded
// after the auth middleware resolved the session cookie. Opening a
// connection registers the identity in the session registry; closing it
// unregisters. Events flow out through a ConnectionSink; typing signals
// flow in.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"whisperline/api/middleware"
	"whisperline/contract"
	"whisperline/runtime"
	"whisperline/sink"
	"whisperline/wire"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Gateway struct {
	log        *slog.Logger
	registry   contract.SessionRegistry
	typing     *runtime.TypingCoordinator
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewGateway(log *slog.Logger, registry contract.SessionRegistry,
	typing *runtime.TypingCoordinator, bufferSize int) *Gateway {
	return &Gateway{
		log:        log,
		registry:   registry,
		typing:     typing,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The session cookie is SameSite=Strict; cross-origin pages
			// cannot attach it, so the origin check stays permissive.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and blocks until the client disconnects.
// Registration is scoped to the connection lifetime via defer, so a
// crashed read loop still unregisters and flips presence correctly.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "user_id", user.ID, "error", err)
		return
	}

	connectionSink := sink.NewConnectionSink(g.log, g.bufferSize)
	g.registry.Register(user.ID, connectionSink)
	g.log.Info(fmt.Sprintf("Client %s connected", user.ID))

	done := make(chan struct{})
	go g.writePump(conn, connectionSink, done)

	g.readPump(r, conn, user.ID)

	// Read loop ended: the connection is gone either way.
	g.registry.Unregister(connectionSink)
	close(done)
	_ = conn.Close()
	g.log.Info(fmt.Sprintf("Client %s disconnected", user.ID))
}

// readPump consumes inbound frames. Only typing and stopTyping are valid
// client->server events; anything else is ignored rather than fatal.
func (g *Gateway) readPump(r *http.Request, conn *websocket.Conn, userID string) {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame struct {
			Event string             `json:"event"`
			Data  wire.InboundTyping `json:"data"`
		}
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Data.ReceiverID == "" {
			g.log.Debug("Ignoring malformed frame", "user_id", userID)
			continue
		}

		switch frame.Event {
		case "typing":
			g.typing.Start(r.Context(), userID, frame.Data.ReceiverID)
		case "stopTyping":
			g.typing.Stop(r.Context(), userID, frame.Data.ReceiverID)
		default:
			g.log.Debug("Ignoring unknown event", "event", frame.Event, "user_id", userID)
		}
	}
}

// writePump drains the sink into the socket and keeps the connection
// alive with pings. A write failure ends the pump; the read side notices
// the dead socket and tears the whole connection down.
func (g *Gateway) writePump(conn *websocket.Conn, s *sink.ConnectionSink, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt := <-s.Events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wire.FromEvent(evt)); err != nil {
				g.log.Debug("Write failed, closing connection", "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
