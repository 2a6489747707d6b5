package gameserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/game/lobby"
	"github.com/cory-johannsen/tilegame/internal/game/match"
	"github.com/cory-johannsen/tilegame/internal/game/session"
	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// GameHandler serves the in-game operations: starting a game from a lobby
// and placing tiles.
type GameHandler struct {
	sessions *session.Registry
	lobbies  *lobby.Registry
	matches  *match.Registry
	recorder MatchRecorder
	logger   *zap.Logger
}

// NewGameHandler creates a handler over the given registries.
func NewGameHandler(
	sessions *session.Registry,
	lobbies *lobby.Registry,
	matches *match.Registry,
	recorder MatchRecorder,
	logger *zap.Logger,
) *GameHandler {
	return &GameHandler{
		sessions: sessions,
		lobbies:  lobbies,
		matches:  matches,
		recorder: recorder,
		logger:   logger,
	}
}

// StartGame promotes the caller's lobby into a game. Any member may start;
// the lobby must meet the minimum player count with everyone ready. Racing
// starts on the same lobby yield exactly one game, the losers fail cleanly.
func (h *GameHandler) StartGame(id session.ClientID) *protocol.StartGameResponse {
	p, err := h.sessions.Lookup(id)
	if err != nil {
		return &protocol.StartGameResponse{Success: false}
	}
	lobbyID, inLobby := p.Lobby()
	if !inLobby {
		return &protocol.StartGameResponse{Success: false}
	}
	l, err := h.lobbies.Get(lobbyID)
	if err != nil {
		return &protocol.StartGameResponse{Success: false}
	}

	g, err := h.matches.Start(l)
	if err != nil {
		h.logger.Debug("start game rejected",
			zap.Uint32("client_id", uint32(id)),
			zap.Uint32("lobby_id", lobbyID),
			zap.Error(err))
		return &protocol.StartGameResponse{Success: false}
	}

	h.recordStart(g.ID(), g.State().Participants())
	return &protocol.StartGameResponse{Success: true, GameID: g.ID()}
}

// PlaceTile plays one card from the caller's hand onto the board. The
// rules engine validates turn order, the card index, and bounds; any
// violation comes back as a failed response with the game untouched.
func (h *GameHandler) PlaceTile(id session.ClientID, req *protocol.PlaceTileRequest) *protocol.PlaceTileResponse {
	p, err := h.sessions.Lookup(id)
	if err != nil {
		return &protocol.PlaceTileResponse{Success: false}
	}
	gameID, inGame := p.Game()
	if !inGame {
		return &protocol.PlaceTileResponse{Success: false}
	}
	g, err := h.matches.Get(gameID)
	if err != nil {
		return &protocol.PlaceTileResponse{Success: false}
	}

	if _, err := g.State().Place(id, req.CardIndex, req.X, req.Y); err != nil {
		h.logger.Debug("place tile rejected",
			zap.Uint32("client_id", uint32(id)),
			zap.Uint32("game_id", gameID),
			zap.Int("x", req.X),
			zap.Int("y", req.Y),
			zap.Int("card_index", req.CardIndex),
			zap.Error(err))
		return &protocol.PlaceTileResponse{Success: false}
	}
	return &protocol.PlaceTileResponse{Success: true}
}

// recordStart persists game creation off the request path.
func (h *GameHandler) recordStart(gameID uint32, participants []session.ClientID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := h.recorder.RecordStart(ctx, gameID, participants); err != nil {
			h.logger.Error("recording game start",
				zap.Uint32("game_id", gameID),
				zap.Error(err))
		}
	}()
}
