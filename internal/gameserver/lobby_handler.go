package gameserver

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/game/lobby"
	"github.com/cory-johannsen/tilegame/internal/game/session"
	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// LobbyHandler serves the lobby operations: create, join, quit, and
// readiness changes. Failures are reported in the response's success flag;
// the session itself is never torn down here.
type LobbyHandler struct {
	sessions *session.Registry
	lobbies  *lobby.Registry
	logger   *zap.Logger
}

// NewLobbyHandler creates a handler over the given registries.
func NewLobbyHandler(sessions *session.Registry, lobbies *lobby.Registry, logger *zap.Logger) *LobbyHandler {
	return &LobbyHandler{sessions: sessions, lobbies: lobbies, logger: logger}
}

// CreateLobby opens a new lobby with the caller as its sole member. The
// caller must be registered and free of any lobby or game.
func (h *LobbyHandler) CreateLobby(id session.ClientID) *protocol.CreateLobbyResponse {
	p, err := h.sessions.Lookup(id)
	if err != nil {
		return &protocol.CreateLobbyResponse{Success: false}
	}

	l := h.lobbies.Create()
	if err := l.AddMember(p); err != nil {
		// The caller is already in a lobby or game. Drop the empty shell.
		h.lobbies.DestroyIfEmpty(l.ID())
		h.logger.Debug("create lobby rejected",
			zap.Uint32("client_id", uint32(id)),
			zap.Error(err))
		return &protocol.CreateLobbyResponse{Success: false}
	}

	h.logger.Info("lobby created",
		zap.Uint32("lobby_id", l.ID()),
		zap.Uint32("client_id", uint32(id)))
	return &protocol.CreateLobbyResponse{Success: true, Lobby: lobbyInfo(l)}
}

// JoinLobby adds the caller to an existing lobby. Joins fail cleanly when
// the lobby is unknown, full, closed, or the caller is not free.
func (h *LobbyHandler) JoinLobby(id session.ClientID, lobbyID uint32) *protocol.JoinLobbyResponse {
	p, err := h.sessions.Lookup(id)
	if err != nil {
		return &protocol.JoinLobbyResponse{Success: false}
	}
	l, err := h.lobbies.Get(lobbyID)
	if err != nil {
		return &protocol.JoinLobbyResponse{Success: false}
	}
	if err := l.AddMember(p); err != nil {
		h.logger.Debug("join lobby rejected",
			zap.Uint32("client_id", uint32(id)),
			zap.Uint32("lobby_id", lobbyID),
			zap.Error(err))
		return &protocol.JoinLobbyResponse{Success: false}
	}

	h.logger.Info("lobby joined",
		zap.Uint32("lobby_id", lobbyID),
		zap.Uint32("client_id", uint32(id)))
	return &protocol.JoinLobbyResponse{Success: true, Lobby: lobbyInfo(l)}
}

// QuitLobby removes the caller from its current lobby. The lobby is
// destroyed once its last member leaves.
func (h *LobbyHandler) QuitLobby(id session.ClientID) *protocol.QuitLobbyResponse {
	p, err := h.sessions.Lookup(id)
	if err != nil {
		return &protocol.QuitLobbyResponse{Success: false}
	}
	lobbyID, inLobby := p.Lobby()
	if !inLobby {
		return &protocol.QuitLobbyResponse{Success: false}
	}
	l, err := h.lobbies.Get(lobbyID)
	if err != nil {
		return &protocol.QuitLobbyResponse{Success: false}
	}
	if _, err := l.RemoveMember(p); err != nil {
		return &protocol.QuitLobbyResponse{Success: false}
	}
	h.lobbies.DestroyIfEmpty(lobbyID)

	h.logger.Info("lobby left",
		zap.Uint32("lobby_id", lobbyID),
		zap.Uint32("client_id", uint32(id)))
	return &protocol.QuitLobbyResponse{Success: true}
}

// SetReady flips the caller's readiness flag in its current lobby.
func (h *LobbyHandler) SetReady(id session.ClientID, ready bool) *protocol.SetReadyResponse {
	p, err := h.sessions.Lookup(id)
	if err != nil {
		return &protocol.SetReadyResponse{Success: false}
	}
	lobbyID, inLobby := p.Lobby()
	if !inLobby {
		return &protocol.SetReadyResponse{Success: false}
	}
	l, err := h.lobbies.Get(lobbyID)
	if err != nil {
		return &protocol.SetReadyResponse{Success: false}
	}
	if err := l.SetReady(id, ready); err != nil {
		return &protocol.SetReadyResponse{Success: false}
	}
	return &protocol.SetReadyResponse{Success: true}
}

func lobbyInfo(l *lobby.Lobby) *protocol.LobbyInfo {
	members := l.Members()
	info := &protocol.LobbyInfo{
		ID:       l.ID(),
		Capacity: l.Capacity(),
		Members:  make([]protocol.LobbyMember, 0, len(members)),
	}
	for _, m := range members {
		info.Members = append(info.Members, protocol.LobbyMember{
			ID:    uint32(m.ID),
			Name:  m.Name,
			Ready: m.Ready,
		})
	}
	return info
}
