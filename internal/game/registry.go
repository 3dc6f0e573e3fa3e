// internal/game/registry.go
package game

import (
	"crypto/rand"
	"math/big"
	"sync"
)

const codeDigits = 4

// Registry maps 4-digit room codes to live rooms. It is in-memory only and
// owned by whoever serves the process; construct one per server (or per test)
// rather than sharing a package-level instance.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom mints a code not currently in use, stores a fresh waiting room
// under it, and wires the room to delete itself once its last player leaves.
// A code is only eligible for reuse after the prior room is deleted.
func (reg *Registry) CreateRoom() *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := randomCode()
	for _, taken := reg.rooms[code]; taken; _, taken = reg.rooms[code] {
		code = randomCode()
	}

	room := NewRoom(code)
	room.OnEmpty = func(c string) {
		reg.DeleteRoom(c)
	}
	reg.rooms[code] = room
	return room
}

// GetRoom looks up a live room. A missing code is a recoverable condition for
// callers, not a fault.
func (reg *Registry) GetRoom(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[code]
	return room, ok
}

// DeleteRoom removes the code from the registry. Deleting an absent code is a
// no-op.
func (reg *Registry) DeleteRoom(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// Len reports the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// randomCode draws a uniform 4-digit numeric code, leading zeros included.
func randomCode() string {
	const digits = "0123456789"
	code := make([]byte, codeDigits)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		code[i] = digits[n.Int64()]
	}
	return string(code)
}
