package gameserver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/game/session"
	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// Dispatcher routes decoded requests to their handlers. Every request gets
// a typed response; domain failures come back with the success flag down,
// never as a torn-down session.
type Dispatcher struct {
	control *ControlHandler
	lobby   *LobbyHandler
	game    *GameHandler
	logger  *zap.Logger
}

// NewDispatcher wires the three handlers together.
//
// Precondition: all handlers and the logger must be non-nil.
func NewDispatcher(control *ControlHandler, lobby *LobbyHandler, game *GameHandler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{control: control, lobby: lobby, game: game, logger: logger}
}

// Dispatch executes one request on behalf of the given client.
//
// Postcondition: Returns a non-nil response whose opcode matches the
// request, or an error only for request types the dispatcher does not know.
func (d *Dispatcher) Dispatch(id session.ClientID, req protocol.Request) (protocol.Response, error) {
	var resp protocol.Response
	switch r := req.(type) {
	case *protocol.ConnectRequest:
		resp = d.control.Connect(id, r.Name)
	case *protocol.DisconnectRequest:
		resp = d.control.Disconnect(id)
	case *protocol.HeartbeatRequest:
		resp = d.control.Heartbeat(id)
	case *protocol.CreateLobbyRequest:
		resp = d.lobby.CreateLobby(id)
	case *protocol.JoinLobbyRequest:
		resp = d.lobby.JoinLobby(id, r.LobbyID)
	case *protocol.QuitLobbyRequest:
		resp = d.lobby.QuitLobby(id)
	case *protocol.SetReadyRequest:
		resp = d.lobby.SetReady(id, r.Ready)
	case *protocol.StartGameRequest:
		resp = d.game.StartGame(id)
	case *protocol.PlaceTileRequest:
		resp = d.game.PlaceTile(id, r)
	default:
		return nil, fmt.Errorf("dispatching request: unhandled type %T", req)
	}

	if !resp.OK() {
		d.logger.Debug("request failed",
			zap.Uint32("client_id", uint32(id)),
			zap.String("opcode", req.Opcode().String()))
	}
	return resp, nil
}
