// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/heavegame/heave/internal/auth"
	"github.com/heavegame/heave/internal/game"
	"github.com/heavegame/heave/internal/middleware"
)

// gameMessage is the envelope for every incoming client event. Only the
// fields relevant to the given type are populated.
type gameMessage struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
	Team     string `json:"team,omitempty"`
}

// GameWSHandler upgrades the connection, binds it to a fresh session and runs
// the read loop until the client goes away. Every mutating room event routes
// through s.handleMessage; both graceful leave-room and abrupt disconnect end
// in the same leave transition.
func GameWSHandler(logger *logrus.Logger, s *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"heave"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "heave" {
			c.Close(BadSubprotocolError, "client must speak the heave subprotocol")
			return
		}

		// The login cookie supplies a default username; a missing or stale
		// token is tolerated because join payloads carry their own.
		username := ""
		if cookieHeader := r.Header.Get("Cookie"); strings.Contains(cookieHeader, auth.CookieName+"=") {
			token := extractCookieToken(cookieHeader, auth.CookieName)
			if name, err := auth.AuthenticateJWT(token); err == nil {
				username = name
			} else {
				logger.Warnf("ignoring invalid auth cookie from %s: %v", remoteAddr, err)
			}
		}

		connID := uuid.New()
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cl := newClient(connID, username, logger)
		s.Binder.Register(connID, username)
		if err := s.Stats.ConnOpened(ctx); err != nil {
			logger.Warnf("stats: conn open not recorded: %v", err)
		}
		middleware.LogWebSocketConnect(logger, remoteAddr, connID.String())

		go writePump(ctx, c, cl, logger)

		readErr := readPump(ctx, c, s, cl, logger)

		s.handleDisconnect(cl)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, connID.String(), readErr)
	}
}

// readPump handles incoming messages until the connection closes or errors.
func readPump(ctx context.Context, c *websocket.Conn, s *GameServer, cl *client, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("conn %s: ignoring non-text message type %d", cl.ConnID, typ)
			continue
		}

		var packet gameMessage
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("conn %s: invalid json: %v", cl.ConnID, err)
			cl.WriteError("invalid JSON payload")
			continue
		}
		s.handleMessage(ctx, cl, packet)
	}
}

// handleMessage dispatches one client event. Failures are reported back to
// the sender as error-message events and never tear down the connection.
func (s *GameServer) handleMessage(ctx context.Context, cl *client, msg gameMessage) {
	switch msg.Type {
	case "create-room":
		s.handleCreateRoom(ctx, cl, msg)
	case "join-room":
		s.handleJoinRoom(cl, msg)
	case "start-game":
		s.handleStartGame(cl)
	case "pull":
		s.handlePull(ctx, cl)
	case "reset-game":
		s.handleResetGame(cl)
	case "leave-room":
		s.handleLeaveRoom(cl)
	case "ping-server":
		cl.Write(map[string]interface{}{
			"type":    "server-message",
			"message": fmt.Sprintf("pong %d", time.Now().Unix()),
		})
	default:
		cl.WriteError(fmt.Sprintf("unknown action type: %s", msg.Type))
	}
}

func (s *GameServer) handleCreateRoom(ctx context.Context, cl *client, msg gameMessage) {
	if msg.Username != "" {
		cl.Username = msg.Username
		s.Binder.SetUsername(cl.ConnID, msg.Username)
	}

	room := s.Registry.CreateRoom()
	if err := s.Stats.RoomCreated(ctx); err != nil {
		s.Logger.Warnf("stats: room creation not recorded: %v", err)
	}
	s.Logger.Infof("room %s created by conn %s", room.Code, cl.ConnID)

	// The creator is not on the roster yet; they join by code like everyone
	// else, and the first join seats them as host.
	cl.Write(map[string]interface{}{
		"type":   "room-created",
		"roomId": room.Code,
	})
}

func (s *GameServer) handleJoinRoom(cl *client, msg gameMessage) {
	team, err := game.ParseTeam(msg.Team)
	if err != nil {
		cl.WriteError(err.Error())
		return
	}

	room, ok := s.Registry.GetRoom(msg.RoomID)
	if !ok {
		cl.WriteError(game.ErrRoomNotFound.Error())
		return
	}

	sess, err := s.Binder.Bind(cl.ConnID, room.Code, msg.Username, team)
	if err != nil {
		cl.WriteError(err.Error())
		return
	}
	username := sess.Username
	if username == "" {
		username = "Guest"
		s.Binder.SetUsername(cl.ConnID, username)
	}
	cl.Username = username

	snap, err := room.Join(cl.ConnID, username, team)
	if err != nil {
		// Roll the association back so the connection can try another room.
		if uerr := s.Binder.Unbind(cl.ConnID); uerr != nil {
			s.Logger.Warnf("conn %s: unbind after failed join: %v", cl.ConnID, uerr)
		}
		cl.WriteError(err.Error())
		return
	}

	s.Gateway.Subscribe(room.Code, cl)
	s.Gateway.BroadcastState(snap)
	s.Gateway.BroadcastNotice(room.Code, fmt.Sprintf("%s joined team %s", username, team))
	s.Logger.Infof("conn %s (%s) joined room %s on team %s", cl.ConnID, username, room.Code, team)
}

// boundRoom resolves the caller's current room, reporting the failure to the
// caller when there is none.
func (s *GameServer) boundRoom(cl *client) (*game.Room, bool) {
	sess, ok := s.Binder.Get(cl.ConnID)
	if !ok || !sess.Bound() {
		cl.WriteError(game.ErrNotInRoom.Error())
		return nil, false
	}
	room, ok := s.Registry.GetRoom(sess.RoomCode)
	if !ok {
		cl.WriteError(game.ErrRoomNotFound.Error())
		return nil, false
	}
	return room, true
}

func (s *GameServer) handleStartGame(cl *client) {
	room, ok := s.boundRoom(cl)
	if !ok {
		return
	}
	snap, err := room.Start(cl.ConnID)
	if err != nil {
		cl.WriteError(err.Error())
		return
	}
	s.Gateway.BroadcastState(snap)
	s.Logger.Infof("room %s: game started by host %s", room.Code, cl.ConnID)
}

func (s *GameServer) handlePull(ctx context.Context, cl *client) {
	room, ok := s.boundRoom(cl)
	if !ok {
		return
	}
	snap, err := room.Pull(cl.ConnID)
	if err != nil {
		cl.WriteError(err.Error())
		return
	}
	s.Gateway.BroadcastState(snap)

	if snap.Status == game.StatusFinished {
		s.Gateway.BroadcastNotice(room.Code, fmt.Sprintf("team %s wins!", snap.Winner))
		if err := s.Stats.GameFinished(ctx, snap.Winner); err != nil {
			s.Logger.Warnf("stats: finished game not recorded: %v", err)
		}
		s.Logger.Infof("room %s: finished, winner %s", room.Code, snap.Winner)
	}
}

func (s *GameServer) handleResetGame(cl *client) {
	room, ok := s.boundRoom(cl)
	if !ok {
		return
	}
	snap, err := room.Reset(cl.ConnID)
	if err != nil {
		cl.WriteError(err.Error())
		return
	}
	s.Gateway.BroadcastState(snap)
	s.Gateway.BroadcastNotice(room.Code, "game has been reset")
	s.Logger.Infof("room %s: reset by host %s", room.Code, cl.ConnID)
}

func (s *GameServer) handleLeaveRoom(cl *client) {
	sess, ok := s.Binder.Get(cl.ConnID)
	if !ok || !sess.Bound() {
		cl.WriteError(game.ErrNotInRoom.Error())
		return
	}
	roomCode := sess.RoomCode
	s.leaveRoom(cl, roomCode)
	if err := s.Binder.Unbind(cl.ConnID); err != nil {
		s.Logger.Warnf("conn %s: unbind on leave: %v", cl.ConnID, err)
	}
}

// leaveRoom runs the departure transition and the resulting broadcasts. The
// session association is left to the caller: leave-room keeps the session for
// a future join, disconnect removes it entirely.
func (s *GameServer) leaveRoom(cl *client, roomCode string) {
	s.Gateway.Unsubscribe(roomCode, cl.ConnID)

	room, ok := s.Registry.GetRoom(roomCode)
	if !ok {
		return
	}
	res, err := room.Leave(cl.ConnID)
	if err != nil {
		s.Logger.Warnf("conn %s: leave transition for room %s: %v", cl.ConnID, roomCode, err)
		return
	}
	if res.Empty {
		s.Logger.Infof("room %s deleted after last player left", roomCode)
		return
	}

	s.Gateway.BroadcastState(res.Snapshot)
	s.Gateway.BroadcastNotice(roomCode, fmt.Sprintf("%s left the room", cl.Username))
	if res.Aborted {
		s.Gateway.BroadcastNotice(roomCode, "game aborted: not enough players")
		if err := s.Stats.GameFinished(context.Background(), game.WinnerAborted); err != nil {
			s.Logger.Warnf("stats: aborted game not recorded: %v", err)
		}
	}
}

// handleDisconnect tears the session down after the read pump exits. The room
// sees exactly the same leave transition as an explicit leave-room request.
func (s *GameServer) handleDisconnect(cl *client) {
	if sess, ok := s.Binder.Remove(cl.ConnID); ok && sess.Bound() {
		s.leaveRoom(cl, sess.RoomCode)
	}
	if err := s.Stats.ConnClosed(context.Background()); err != nil {
		s.Logger.Warnf("stats: conn close not recorded: %v", err)
	}
}

// writePump drains the client's OutChan onto the wire and keeps the
// connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, cl *client, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-cl.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("conn %s: failed to marshal outgoing msg: %v", cl.ConnID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: websocket write failed: %v", cl.ConnID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: ping failed, assuming disconnect: %v", cl.ConnID, err)
				return
			}
		}
	}
}
