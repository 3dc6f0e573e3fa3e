// internal/session/binder.go
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/heavegame/heave/internal/game"
)

var (
	ErrAlreadyInRoom = errors.New("connection is already bound to a room")
	ErrNotBound      = errors.New("connection is not bound to a room")
	ErrUnknownConn   = errors.New("unknown connection")
)

// Session is the per-connection record: who the connection claims to be and
// which room, if any, it is currently bound to. Kept in a side table instead
// of being stapled onto the transport connection.
type Session struct {
	ConnID   uuid.UUID
	Username string
	RoomCode string
	Team     game.Team
}

// Bound reports whether the session currently has a room association.
func (s *Session) Bound() bool {
	return s.RoomCode != ""
}

// Binder tracks every live connection's session. A connection holds at most
// one room association at a time; joining a second room without leaving the
// first is rejected.
type Binder struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewBinder returns an empty binder.
func NewBinder() *Binder {
	return &Binder{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Register creates the session record for a freshly accepted connection.
func (b *Binder) Register(connID uuid.UUID, username string) *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Session{ConnID: connID, Username: username}
	b.sessions[connID] = s
	return s
}

// Get looks up the session for a connection.
func (b *Binder) Get(connID uuid.UUID) (*Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[connID]
	return s, ok
}

// SetUsername replaces the session's display name, e.g. when a create-room
// request supplies one before any join.
func (b *Binder) SetUsername(connID uuid.UUID, username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[connID]; ok && username != "" {
		s.Username = username
	}
}

// Bind associates the connection with a room. The join-time username, when
// non-empty, replaces the one supplied at registration.
func (b *Binder) Bind(connID uuid.UUID, roomCode string, username string, team game.Team) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[connID]
	if !ok {
		return nil, ErrUnknownConn
	}
	if s.RoomCode != "" {
		return nil, ErrAlreadyInRoom
	}
	s.RoomCode = roomCode
	if username != "" {
		s.Username = username
	}
	s.Team = team
	return s, nil
}

// Unbind clears the room association but keeps the session alive, so the
// connection can create or join another room.
func (b *Binder) Unbind(connID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[connID]
	if !ok {
		return ErrUnknownConn
	}
	if s.RoomCode == "" {
		return ErrNotBound
	}
	s.RoomCode = ""
	s.Team = ""
	return nil
}

// Remove drops the session entirely on transport disconnect and returns the
// final record so the caller can run the same leave transition a graceful
// departure would.
func (b *Binder) Remove(connID uuid.UUID) (*Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[connID]
	if ok {
		delete(b.sessions, connID)
	}
	return s, ok
}

// Len reports the number of live sessions.
func (b *Binder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}
