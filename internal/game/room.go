// internal/game/room.go
package game

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// WinThreshold is the absolute score at which a round ends. Blue pulls the
// score negative, red positive; the first team to drag it to +/-50 wins.
const WinThreshold = 50

// MinPlayers is the smallest roster that can start (or keep) a round.
const MinPlayers = 2

// Status is the lifecycle phase of a room. Rooms move waiting -> playing ->
// finished; a reset jumps straight back to playing with the same roster.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Team is one of the two sides of the rope.
type Team string

const (
	TeamBlue Team = "blue"
	TeamRed  Team = "red"
)

// ParseTeam validates a client-supplied team string.
func ParseTeam(s string) (Team, error) {
	switch Team(s) {
	case TeamBlue, TeamRed:
		return Team(s), nil
	}
	return "", ErrUnknownTeam
}

// Winner is the terminal outcome of a round. Empty until the room finishes.
type Winner string

const (
	WinnerBlue    Winner = "blue"
	WinnerRed     Winner = "red"
	WinnerAborted Winner = "aborted"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotHost          = errors.New("only the host may do that")
	ErrNotEnoughPlayers = errors.New("at least 2 players are required")
	ErrWrongState       = errors.New("action not valid in the room's current state")
	ErrNotInRoom        = errors.New("player is not in this room")
	ErrAlreadyJoined    = errors.New("player already joined this room")
	ErrUnknownTeam      = errors.New("team must be blue or red")
)

// Player is one roster entry. The ID is the connection id minted by the
// session binder; usernames are display-only and not unique.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Team     Team      `json:"team"`
}

// Room is a single tug-of-war session. All state is in memory and guarded by
// Mu; every mutating transition must hold the lock and bump Revision so that
// broadcast snapshots are totally ordered per room.
type Room struct {
	Code     string
	HostID   uuid.UUID
	Status   Status
	Score    int
	Players  []*Player // insertion order = join order
	Winner   Winner
	Revision uint64

	// OnEmpty fires after the last player leaves. The registry installs it at
	// creation so the room removes itself from the code space.
	OnEmpty func(code string)

	Mu sync.Mutex
}

// NewRoom returns a waiting room with an empty roster. The host is assigned
// on the first successful Join, never at creation, so HostID always refers to
// a roster entry while the room is live.
func NewRoom(code string) *Room {
	return &Room{
		Code:   code,
		Status: StatusWaiting,
	}
}

// Snapshot is the full room state broadcast to every subscriber after each
// transition. Revision increases monotonically per room; clients drop
// snapshots older than the last one they applied.
type Snapshot struct {
	RoomID   string    `json:"roomId"`
	HostID   uuid.UUID `json:"hostId"`
	Status   Status    `json:"status"`
	Score    int       `json:"score"`
	Players  []Player  `json:"players"`
	Winner   Winner    `json:"winner,omitempty"`
	Revision uint64    `json:"revision"`
}

// SnapshotUnsafe copies the current state. Assumes Mu is held.
func (r *Room) SnapshotUnsafe() Snapshot {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = *p
	}
	return Snapshot{
		RoomID:   r.Code,
		HostID:   r.HostID,
		Status:   r.Status,
		Score:    r.Score,
		Players:  players,
		Winner:   r.Winner,
		Revision: r.Revision,
	}
}

// Snapshot copies the current state under the room lock.
func (r *Room) Snapshot() Snapshot {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.SnapshotUnsafe()
}

func (r *Room) playerUnsafe(id uuid.UUID) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Join appends a player to the roster. Only valid while the room is waiting;
// the first player to join becomes the host. Returns the snapshot to
// broadcast.
func (r *Room) Join(id uuid.UUID, username string, team Team) (Snapshot, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusWaiting {
		return Snapshot{}, ErrWrongState
	}
	if r.playerUnsafe(id) != nil {
		return Snapshot{}, ErrAlreadyJoined
	}

	r.Players = append(r.Players, &Player{ID: id, Username: username, Team: team})
	if len(r.Players) == 1 {
		r.HostID = id
	}
	r.Revision++
	return r.SnapshotUnsafe(), nil
}

// Start moves a waiting room into play. Host-only, and the roster must hold
// at least MinPlayers.
func (r *Room) Start(callerID uuid.UUID) (Snapshot, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if callerID != r.HostID {
		return Snapshot{}, ErrNotHost
	}
	if r.Status != StatusWaiting {
		return Snapshot{}, ErrWrongState
	}
	if len(r.Players) < MinPlayers {
		return Snapshot{}, ErrNotEnoughPlayers
	}

	r.Status = StatusPlaying
	r.Score = 0
	r.Winner = ""
	r.Revision++
	return r.SnapshotUnsafe(), nil
}

// Pull applies one scoring action for the caller's team: blue shifts the
// score by -1, red by +1. The instant the score reaches +/-WinThreshold the
// room finishes with that team as the winner, and further pulls are rejected
// with ErrWrongState.
func (r *Room) Pull(callerID uuid.UUID) (Snapshot, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying {
		return Snapshot{}, ErrWrongState
	}
	p := r.playerUnsafe(callerID)
	if p == nil {
		return Snapshot{}, ErrNotInRoom
	}

	if p.Team == TeamBlue {
		r.Score--
	} else {
		r.Score++
	}
	switch {
	case r.Score <= -WinThreshold:
		r.Status = StatusFinished
		r.Winner = WinnerBlue
	case r.Score >= WinThreshold:
		r.Status = StatusFinished
		r.Winner = WinnerRed
	}
	r.Revision++
	return r.SnapshotUnsafe(), nil
}

// Reset starts a fresh round with the same roster: score back to zero, status
// playing, winner cleared. Host-only.
func (r *Room) Reset(callerID uuid.UUID) (Snapshot, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if callerID != r.HostID {
		return Snapshot{}, ErrNotHost
	}

	r.Score = 0
	r.Status = StatusPlaying
	r.Winner = ""
	r.Revision++
	return r.SnapshotUnsafe(), nil
}

// LeaveResult describes what a departure did to the room.
type LeaveResult struct {
	Snapshot Snapshot
	Empty    bool // the room lost its last player and OnEmpty fired
	Aborted  bool // this departure forced the playing round to finish aborted
}

// Leave removes a player. Graceful leave requests and abrupt transport
// disconnects both land here; there is no game-state difference between the
// two. If the departing player was the host, the earliest remaining joiner is
// promoted. A playing room that drops below MinPlayers finishes as aborted.
// When the last player leaves the room reports empty and OnEmpty fires
// (outside the lock).
func (r *Room) Leave(id uuid.UUID) (LeaveResult, error) {
	r.Mu.Lock()

	if r.playerUnsafe(id) == nil {
		r.Mu.Unlock()
		return LeaveResult{}, ErrNotInRoom
	}

	players := r.Players[:0]
	for _, p := range r.Players {
		if p.ID != id {
			players = append(players, p)
		}
	}
	r.Players = players

	res := LeaveResult{Empty: len(r.Players) == 0}
	if res.Empty {
		r.HostID = uuid.Nil
	} else if r.HostID == id {
		r.HostID = r.Players[0].ID
	}
	if r.Status == StatusPlaying && len(r.Players) < MinPlayers {
		r.Status = StatusFinished
		r.Winner = WinnerAborted
		res.Aborted = true
	}
	r.Revision++
	res.Snapshot = r.SnapshotUnsafe()
	onEmpty := r.OnEmpty
	r.Mu.Unlock()

	if res.Empty && onEmpty != nil {
		onEmpty(r.Code)
	}
	return res, nil
}
