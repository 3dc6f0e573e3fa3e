// internal/stats/stats.go
package stats

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heavegame/heave/internal/game"
)

// Redis key layout. Counters are ephemeral telemetry, not game state: every
// write refreshes a TTL so an idle deployment leaves nothing behind.
const (
	connectionsKey   = "heave:connections"
	roomsCreatedKey  = "heave:rooms_created"
	gamesFinishedKey = "heave:games_finished"
	winsKeyPrefix    = "heave:wins:"

	counterExpiration = 24 * time.Hour
)

// Connect initializes a Redis client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func Connect() (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// Recorder tracks live service counters in Redis. A nil client disables
// recording entirely; the game itself never depends on Redis being up.
type Recorder struct {
	client *redis.Client
}

// NewRecorder wraps a Redis client. Pass nil to run with stats disabled.
func NewRecorder(client *redis.Client) *Recorder {
	return &Recorder{client: client}
}

// Enabled reports whether a Redis client is attached.
func (rec *Recorder) Enabled() bool {
	return rec != nil && rec.client != nil
}

func (rec *Recorder) bump(ctx context.Context, key string, delta int64) error {
	if !rec.Enabled() {
		return nil
	}
	pipe := rec.client.Pipeline()
	pipe.IncrBy(ctx, key, delta)
	pipe.Expire(ctx, key, counterExpiration)
	_, err := pipe.Exec(ctx)
	return err
}

// ConnOpened increments the live-connections gauge.
func (rec *Recorder) ConnOpened(ctx context.Context) error {
	return rec.bump(ctx, connectionsKey, 1)
}

// ConnClosed decrements the live-connections gauge.
func (rec *Recorder) ConnClosed(ctx context.Context) error {
	return rec.bump(ctx, connectionsKey, -1)
}

// RoomCreated increments the created-rooms counter.
func (rec *Recorder) RoomCreated(ctx context.Context) error {
	return rec.bump(ctx, roomsCreatedKey, 1)
}

// GameFinished records a terminal outcome. Threshold wins also score a point
// for the winning team; aborted rounds only count toward the total.
func (rec *Recorder) GameFinished(ctx context.Context, winner game.Winner) error {
	if !rec.Enabled() {
		return nil
	}
	if err := rec.bump(ctx, gamesFinishedKey, 1); err != nil {
		return err
	}
	switch winner {
	case game.WinnerBlue, game.WinnerRed:
		return rec.bump(ctx, winsKeyPrefix+string(winner), 1)
	}
	return nil
}

// Stats is the counter snapshot served by the stats endpoint.
type Stats struct {
	Connections   int64 `json:"connections"`
	RoomsCreated  int64 `json:"roomsCreated"`
	GamesFinished int64 `json:"gamesFinished"`
	BlueWins      int64 `json:"blueWins"`
	RedWins       int64 `json:"redWins"`
}

// Snapshot reads all counters. Missing keys read as zero.
func (rec *Recorder) Snapshot(ctx context.Context) (Stats, error) {
	var s Stats
	if !rec.Enabled() {
		return s, nil
	}

	keys := []struct {
		key  string
		dest *int64
	}{
		{connectionsKey, &s.Connections},
		{roomsCreatedKey, &s.RoomsCreated},
		{gamesFinishedKey, &s.GamesFinished},
		{winsKeyPrefix + string(game.WinnerBlue), &s.BlueWins},
		{winsKeyPrefix + string(game.WinnerRed), &s.RedWins},
	}
	for _, k := range keys {
		v, err := rec.client.Get(ctx, k.key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return Stats{}, err
		}
		*k.dest = v
	}
	return s, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
