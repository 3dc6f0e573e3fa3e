// internal/stats/stats_test.go
package stats

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavegame/heave/internal/game"
)

func newTestRecorder(t *testing.T) (*Recorder, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return NewRecorder(client), mr
}

func TestCountersRoundTrip(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.ConnOpened(ctx))
	require.NoError(t, rec.ConnOpened(ctx))
	require.NoError(t, rec.ConnClosed(ctx))
	require.NoError(t, rec.RoomCreated(ctx))
	require.NoError(t, rec.GameFinished(ctx, game.WinnerRed))
	require.NoError(t, rec.GameFinished(ctx, game.WinnerBlue))
	require.NoError(t, rec.GameFinished(ctx, game.WinnerBlue))

	s, err := rec.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Connections)
	assert.Equal(t, int64(1), s.RoomsCreated)
	assert.Equal(t, int64(3), s.GamesFinished)
	assert.Equal(t, int64(2), s.BlueWins)
	assert.Equal(t, int64(1), s.RedWins)
}

func TestAbortedGamesCountNoTeamWin(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.GameFinished(ctx, game.WinnerAborted))

	s, err := rec.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.GamesFinished)
	assert.Zero(t, s.BlueWins)
	assert.Zero(t, s.RedWins)
}

func TestCountersCarryTTL(t *testing.T) {
	rec, mr := newTestRecorder(t)
	require.NoError(t, rec.RoomCreated(context.Background()))

	ttl := mr.TTL("heave:rooms_created")
	assert.Equal(t, counterExpiration, ttl)
}

func TestDisabledRecorderIsNoOp(t *testing.T) {
	ctx := context.Background()
	for _, rec := range []*Recorder{nil, NewRecorder(nil)} {
		assert.False(t, rec.Enabled())
		assert.NoError(t, rec.ConnOpened(ctx))
		assert.NoError(t, rec.GameFinished(ctx, game.WinnerRed))

		s, err := rec.Snapshot(ctx)
		assert.NoError(t, err)
		assert.Zero(t, s)
	}
}
