// internal/session/binder_test.go
package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavegame/heave/internal/game"
)

func TestRegisterAndGet(t *testing.T) {
	b := NewBinder()
	id := uuid.New()

	s := b.Register(id, "ada")
	got, ok := b.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, "ada", got.Username)
	assert.False(t, got.Bound())

	_, ok = b.Get(uuid.New())
	assert.False(t, ok)
}

func TestBindRejectsSecondRoom(t *testing.T) {
	b := NewBinder()
	id := uuid.New()
	b.Register(id, "ada")

	s, err := b.Bind(id, "1234", "", game.TeamBlue)
	require.NoError(t, err)
	assert.True(t, s.Bound())
	assert.Equal(t, "1234", s.RoomCode)
	assert.Equal(t, "ada", s.Username, "registration username survives an empty join username")

	_, err = b.Bind(id, "5678", "", game.TeamRed)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)
	assert.Equal(t, "1234", s.RoomCode)
}

func TestBindUnknownConn(t *testing.T) {
	b := NewBinder()
	_, err := b.Bind(uuid.New(), "1234", "ada", game.TeamBlue)
	assert.ErrorIs(t, err, ErrUnknownConn)
}

func TestJoinUsernameOverridesRegistration(t *testing.T) {
	b := NewBinder()
	id := uuid.New()
	b.Register(id, "cookie-name")

	s, err := b.Bind(id, "1234", "join-name", game.TeamRed)
	require.NoError(t, err)
	assert.Equal(t, "join-name", s.Username)
	assert.Equal(t, game.TeamRed, s.Team)
}

func TestUnbindFreesTheConnection(t *testing.T) {
	b := NewBinder()
	id := uuid.New()
	b.Register(id, "ada")

	assert.ErrorIs(t, b.Unbind(id), ErrNotBound)

	_, err := b.Bind(id, "1234", "", game.TeamBlue)
	require.NoError(t, err)
	require.NoError(t, b.Unbind(id))

	s, ok := b.Get(id)
	require.True(t, ok, "unbind keeps the session alive")
	assert.False(t, s.Bound())

	_, err = b.Bind(id, "5678", "", game.TeamRed)
	assert.NoError(t, err, "a freed connection can join another room")
}

func TestRemoveReturnsFinalRecord(t *testing.T) {
	b := NewBinder()
	id := uuid.New()
	b.Register(id, "ada")
	_, err := b.Bind(id, "1234", "", game.TeamBlue)
	require.NoError(t, err)

	s, ok := b.Remove(id)
	require.True(t, ok)
	assert.Equal(t, "1234", s.RoomCode)

	_, ok = b.Get(id)
	assert.False(t, ok)
	assert.Zero(t, b.Len())

	_, ok = b.Remove(id)
	assert.False(t, ok)
}

func TestSetUsername(t *testing.T) {
	b := NewBinder()
	id := uuid.New()
	b.Register(id, "")

	b.SetUsername(id, "ada")
	s, _ := b.Get(id)
	assert.Equal(t, "ada", s.Username)

	b.SetUsername(id, "") // empty names are ignored
	assert.Equal(t, "ada", s.Username)
}
