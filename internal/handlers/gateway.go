// internal/handlers/gateway.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/heavegame/heave/internal/game"
)

// client is a single live WebSocket connection. Outgoing messages are queued
// on OutChan and drained by the connection's write pump; Write never blocks
// the game path.
type client struct {
	ConnID   uuid.UUID
	Username string
	OutChan  chan map[string]interface{}

	logger *logrus.Logger
}

func newClient(connID uuid.UUID, username string, logger *logrus.Logger) *client {
	return &client{
		ConnID:   connID,
		Username: username,
		OutChan:  make(chan map[string]interface{}, 16),
		logger:   logger,
	}
}

// Write pushes a message onto the client's OutChan non-blockingly. A full or
// closed channel drops the message; the next snapshot supersedes it anyway.
func (c *client) Write(msg map[string]interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		c.logger.Warnf("OutChan for conn %s closed or full, dropped message type %q", c.ConnID, msgType)
	}
}

// WriteError reports a recoverable failure to this connection only.
func (c *client) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error-message",
		"message": msg,
	})
}

// Gateway fans the authoritative room snapshot out to every connection
// subscribed to that room, and nothing to anyone else. Connections receive no
// room traffic until they create or join one.
type Gateway struct {
	mu     sync.Mutex
	subs   map[string]map[uuid.UUID]*client
	logger *logrus.Logger
}

// NewGateway returns an empty gateway.
func NewGateway(logger *logrus.Logger) *Gateway {
	return &Gateway{
		subs:   make(map[string]map[uuid.UUID]*client),
		logger: logger,
	}
}

// Subscribe attaches a connection to a room's fan-out set.
func (g *Gateway) Subscribe(roomCode string, c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.subs[roomCode]
	if !ok {
		set = make(map[uuid.UUID]*client)
		g.subs[roomCode] = set
	}
	set[c.ConnID] = c
}

// Unsubscribe detaches a connection; empty sets are pruned.
func (g *Gateway) Unsubscribe(roomCode string, connID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.subs[roomCode]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(g.subs, roomCode)
	}
}

// Broadcast delivers msg to every connection subscribed to the room. Delivery
// order across connections is not guaranteed; per-connection order is, since
// each write pump drains its own channel in sequence.
func (g *Gateway) Broadcast(roomCode string, msg map[string]interface{}) {
	g.mu.Lock()
	clients := make([]*client, 0, len(g.subs[roomCode]))
	for _, c := range g.subs[roomCode] {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		c.Write(msg)
	}
}

// BroadcastState sends the update-game-state event carrying a full snapshot.
func (g *Gateway) BroadcastState(snap game.Snapshot) {
	g.Broadcast(snap.RoomID, map[string]interface{}{
		"type": "update-game-state",
		"room": snap,
	})
}

// BroadcastNotice sends a human-readable server-message to a room.
func (g *Gateway) BroadcastNotice(roomCode, text string) {
	g.Broadcast(roomCode, map[string]interface{}{
		"type":    "server-message",
		"message": text,
	})
}
