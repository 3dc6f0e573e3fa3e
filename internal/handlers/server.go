// internal/handlers/server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/heavegame/heave/internal/game"
	"github.com/heavegame/heave/internal/session"
	"github.com/heavegame/heave/internal/stats"
)

// GameServer bundles the room registry, the connection session binder, the
// broadcast gateway and the stats recorder behind the WebSocket handler. One
// instance is built at process start; tests build their own.
type GameServer struct {
	Logger   *logrus.Logger
	Registry *game.Registry
	Binder   *session.Binder
	Gateway  *Gateway
	Stats    *stats.Recorder
}

// NewGameServer wires a fresh in-memory server. A nil recorder is replaced
// with a disabled one so callers never nil-check stats.
func NewGameServer(logger *logrus.Logger, rec *stats.Recorder) *GameServer {
	if logger == nil {
		logger = logrus.New()
	}
	if rec == nil {
		rec = stats.NewRecorder(nil)
	}
	return &GameServer{
		Logger:   logger,
		Registry: game.NewRegistry(),
		Binder:   session.NewBinder(),
		Gateway:  NewGateway(logger),
		Stats:    rec,
	}
}
