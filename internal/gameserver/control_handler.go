package gameserver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/game/lobby"
	"github.com/cory-johannsen/tilegame/internal/game/match"
	"github.com/cory-johannsen/tilegame/internal/game/session"
	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// recordTimeout bounds background writes to the match recorder.
const recordTimeout = 5 * time.Second

// ControlHandler serves the connection-lifecycle operations: connect,
// heartbeat, and disconnect with its membership cascade.
type ControlHandler struct {
	sessions         *session.Registry
	lobbies          *lobby.Registry
	matches          *match.Registry
	timeouts         *TimeoutQueue
	recorder         MatchRecorder
	heartbeatTimeout time.Duration
	logger           *zap.Logger
}

// NewControlHandler creates a handler over the given registries.
//
// Precondition: all registries, the recorder, and the logger must be non-nil.
func NewControlHandler(
	sessions *session.Registry,
	lobbies *lobby.Registry,
	matches *match.Registry,
	timeouts *TimeoutQueue,
	recorder MatchRecorder,
	heartbeatTimeout time.Duration,
	logger *zap.Logger,
) *ControlHandler {
	return &ControlHandler{
		sessions:         sessions,
		lobbies:          lobbies,
		matches:          matches,
		timeouts:         timeouts,
		recorder:         recorder,
		heartbeatTimeout: heartbeatTimeout,
		logger:           logger,
	}
}

// Connect registers the connection under the given name and starts the
// heartbeat clock. A second connect on an already-registered connection
// fails without disturbing the existing registration.
func (h *ControlHandler) Connect(id session.ClientID, name string) *protocol.ConnectResponse {
	if _, err := h.sessions.Register(id, name); err != nil {
		h.logger.Debug("connect rejected",
			zap.Uint32("client_id", uint32(id)),
			zap.Error(err))
		return &protocol.ConnectResponse{Success: false}
	}

	h.timeouts.Track(id, time.Now().Add(h.heartbeatTimeout))
	h.logger.Info("client registered",
		zap.Uint32("client_id", uint32(id)),
		zap.String("name", name))
	return &protocol.ConnectResponse{Success: true}
}

// Heartbeat pushes the client's timeout deadline forward.
func (h *ControlHandler) Heartbeat(id session.ClientID) *protocol.HeartbeatResponse {
	if _, err := h.sessions.Lookup(id); err != nil {
		return &protocol.HeartbeatResponse{Success: false}
	}
	if err := h.timeouts.Touch(id, time.Now().Add(h.heartbeatTimeout)); err != nil {
		// Registered but untracked should not happen; re-track rather
		// than let the client time out spuriously.
		h.logger.Warn("registered client missing from timeout queue",
			zap.Uint32("client_id", uint32(id)))
		h.timeouts.Track(id, time.Now().Add(h.heartbeatTimeout))
	}
	return &protocol.HeartbeatResponse{Success: true}
}

// Disconnect removes the client's registration and cascades through its
// memberships: the client leaves its lobby, or is dropped from its game.
// Disconnecting a connection that never registered fails cleanly.
func (h *ControlHandler) Disconnect(id session.ClientID) *protocol.DisconnectResponse {
	p, err := h.sessions.Deregister(id)
	if err != nil {
		h.logger.Debug("disconnect for unregistered client",
			zap.Uint32("client_id", uint32(id)))
		return &protocol.DisconnectResponse{Success: false}
	}
	// A sweeper-expired client was already popped from the queue.
	if err := h.timeouts.Untrack(id); err != nil && !errors.Is(err, ErrNotTracked) {
		h.logger.Warn("disconnect: untracking timeout", zap.Error(err))
	}

	lobbyID, inLobby, gameID, inGame := p.Memberships()
	if inLobby {
		h.leaveLobby(p, lobbyID)
	}
	if inGame {
		h.leaveGame(id, gameID)
	}

	h.logger.Info("client disconnected", zap.Uint32("client_id", uint32(id)))
	return &protocol.DisconnectResponse{Success: true}
}

func (h *ControlHandler) leaveLobby(p *session.Player, lobbyID uint32) {
	l, err := h.lobbies.Get(lobbyID)
	if err != nil {
		h.logger.Warn("disconnect cascade: lobby missing",
			zap.Uint32("client_id", uint32(p.ID())),
			zap.Uint32("lobby_id", lobbyID))
		return
	}
	if _, err := l.RemoveMember(p); err != nil && !errors.Is(err, lobby.ErrNotMember) {
		h.logger.Warn("disconnect cascade: leaving lobby",
			zap.Uint32("client_id", uint32(p.ID())),
			zap.Uint32("lobby_id", lobbyID),
			zap.Error(err))
	}
	h.lobbies.DestroyIfEmpty(lobbyID)
}

func (h *ControlHandler) leaveGame(id session.ClientID, gameID uint32) {
	retired, err := h.matches.RemoveParticipant(gameID, id)
	if err != nil {
		h.logger.Warn("disconnect cascade: leaving game",
			zap.Uint32("client_id", uint32(id)),
			zap.Uint32("game_id", gameID),
			zap.Error(err))
		return
	}
	if retired {
		h.recordFinish(gameID)
	}
}

// recordFinish persists game completion off the request path.
func (h *ControlHandler) recordFinish(gameID uint32) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := h.recorder.RecordFinish(ctx, gameID); err != nil {
			h.logger.Error("recording game finish",
				zap.Uint32("game_id", gameID),
				zap.Error(err))
		}
	}()
}
