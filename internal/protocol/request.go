package protocol

import (
	"encoding/json"
	"fmt"
)

// Request is a decoded client request. The concrete type is one of the
// *Request structs below; dispatchers switch exhaustively on it.
type Request interface {
	Opcode() Opcode
}

// ConnectRequest authenticates the connection as a named player.
type ConnectRequest struct {
	Name string `json:"name"`
}

// DisconnectRequest ends the session explicitly.
type DisconnectRequest struct{}

// HeartbeatRequest proves liveness.
type HeartbeatRequest struct{}

// CreateLobbyRequest creates a lobby with the caller as sole member.
type CreateLobbyRequest struct{}

// JoinLobbyRequest joins an existing lobby.
type JoinLobbyRequest struct {
	LobbyID uint32 `json:"lobby_id"`
}

// QuitLobbyRequest leaves the caller's current lobby.
type QuitLobbyRequest struct{}

// SetReadyRequest flips the caller's readiness flag in its lobby.
type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

// StartGameRequest asks to transition the caller's lobby into a game.
type StartGameRequest struct{}

// PlaceTileRequest plays the card at CardIndex onto board cell (X, Y).
type PlaceTileRequest struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	CardIndex int `json:"card_index"`
}

func (ConnectRequest) Opcode() Opcode     { return OpConnect }
func (DisconnectRequest) Opcode() Opcode  { return OpDisconnect }
func (HeartbeatRequest) Opcode() Opcode   { return OpHeartbeat }
func (CreateLobbyRequest) Opcode() Opcode { return OpCreateLobby }
func (JoinLobbyRequest) Opcode() Opcode   { return OpJoinLobby }
func (QuitLobbyRequest) Opcode() Opcode   { return OpQuitLobby }
func (SetReadyRequest) Opcode() Opcode    { return OpSetReady }
func (StartGameRequest) Opcode() Opcode   { return OpStartGame }
func (PlaceTileRequest) Opcode() Opcode   { return OpPlaceTile }

// DecodeRequest decodes a request frame into its typed Request.
//
// Precondition: f.Kind must be KindRequest.
// Postcondition: Returns the typed request, or an error for unknown opcodes
// or malformed payloads.
func DecodeRequest(f Frame) (Request, error) {
	if f.Kind != KindRequest {
		return nil, fmt.Errorf("decoding request: frame kind %d is not a request", f.Kind)
	}

	var req Request
	switch f.Opcode {
	case OpConnect:
		req = &ConnectRequest{}
	case OpDisconnect:
		req = &DisconnectRequest{}
	case OpHeartbeat:
		req = &HeartbeatRequest{}
	case OpCreateLobby:
		req = &CreateLobbyRequest{}
	case OpJoinLobby:
		req = &JoinLobbyRequest{}
	case OpQuitLobby:
		req = &QuitLobbyRequest{}
	case OpSetReady:
		req = &SetReadyRequest{}
	case OpStartGame:
		req = &StartGameRequest{}
	case OpPlaceTile:
		req = &PlaceTileRequest{}
	default:
		return nil, fmt.Errorf("decoding request: unknown opcode %d", uint8(f.Opcode))
	}

	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, req); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", f.Opcode, err)
		}
	}
	return req, nil
}

// EncodeRequest encodes a typed request into a frame.
//
// Postcondition: Returns a KindRequest frame carrying the JSON payload.
func EncodeRequest(req Request) (Frame, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Frame{}, fmt.Errorf("encoding %s payload: %w", req.Opcode(), err)
	}
	return Frame{Kind: KindRequest, Opcode: req.Opcode(), Payload: payload}, nil
}
