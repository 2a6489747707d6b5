package protocol

import (
	"encoding/json"
	"fmt"
)

// Response is a typed server response. Every response carries a success flag;
// payload fields are populated only on success.
type Response interface {
	Opcode() Opcode
	// OK reports whether the operation succeeded.
	OK() bool
}

// LobbyMember describes one lobby member in a response payload.
type LobbyMember struct {
	ID    uint32 `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// LobbyInfo describes a lobby in a response payload.
type LobbyInfo struct {
	ID       uint32        `json:"id"`
	Capacity int           `json:"capacity"`
	Members  []LobbyMember `json:"members"`
}

// ConnectResponse acknowledges a connect request.
type ConnectResponse struct {
	Success bool `json:"success"`
}

// DisconnectResponse acknowledges a disconnect request.
type DisconnectResponse struct {
	Success bool `json:"success"`
}

// HeartbeatResponse acknowledges a heartbeat.
type HeartbeatResponse struct {
	Success bool `json:"success"`
}

// CreateLobbyResponse carries the created lobby on success.
type CreateLobbyResponse struct {
	Success bool       `json:"success"`
	Lobby   *LobbyInfo `json:"lobby,omitempty"`
}

// JoinLobbyResponse carries the joined lobby on success.
type JoinLobbyResponse struct {
	Success bool       `json:"success"`
	Lobby   *LobbyInfo `json:"lobby,omitempty"`
}

// QuitLobbyResponse acknowledges leaving a lobby.
type QuitLobbyResponse struct {
	Success bool `json:"success"`
}

// SetReadyResponse acknowledges a readiness change.
type SetReadyResponse struct {
	Success bool `json:"success"`
}

// StartGameResponse carries the new game identity on success.
type StartGameResponse struct {
	Success bool   `json:"success"`
	GameID  uint32 `json:"game_id,omitempty"`
}

// PlaceTileResponse acknowledges a tile placement.
type PlaceTileResponse struct {
	Success bool `json:"success"`
}

func (ConnectResponse) Opcode() Opcode     { return OpConnect }
func (DisconnectResponse) Opcode() Opcode  { return OpDisconnect }
func (HeartbeatResponse) Opcode() Opcode   { return OpHeartbeat }
func (CreateLobbyResponse) Opcode() Opcode { return OpCreateLobby }
func (JoinLobbyResponse) Opcode() Opcode   { return OpJoinLobby }
func (QuitLobbyResponse) Opcode() Opcode   { return OpQuitLobby }
func (SetReadyResponse) Opcode() Opcode    { return OpSetReady }
func (StartGameResponse) Opcode() Opcode   { return OpStartGame }
func (PlaceTileResponse) Opcode() Opcode   { return OpPlaceTile }

func (r ConnectResponse) OK() bool     { return r.Success }
func (r DisconnectResponse) OK() bool  { return r.Success }
func (r HeartbeatResponse) OK() bool   { return r.Success }
func (r CreateLobbyResponse) OK() bool { return r.Success }
func (r JoinLobbyResponse) OK() bool   { return r.Success }
func (r QuitLobbyResponse) OK() bool   { return r.Success }
func (r SetReadyResponse) OK() bool    { return r.Success }
func (r StartGameResponse) OK() bool   { return r.Success }
func (r PlaceTileResponse) OK() bool   { return r.Success }

// EncodeResponse encodes a typed response into a frame.
//
// Postcondition: Returns a KindResponse frame carrying the JSON payload.
func EncodeResponse(resp Response) (Frame, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return Frame{}, fmt.Errorf("encoding %s payload: %w", resp.Opcode(), err)
	}
	return Frame{Kind: KindResponse, Opcode: resp.Opcode(), Payload: payload}, nil
}

// DecodeResponse decodes a response frame into its typed Response.
//
// Precondition: f.Kind must be KindResponse.
// Postcondition: Returns the typed response, or an error for unknown opcodes
// or malformed payloads.
func DecodeResponse(f Frame) (Response, error) {
	if f.Kind != KindResponse {
		return nil, fmt.Errorf("decoding response: frame kind %d is not a response", f.Kind)
	}

	var resp Response
	switch f.Opcode {
	case OpConnect:
		resp = &ConnectResponse{}
	case OpDisconnect:
		resp = &DisconnectResponse{}
	case OpHeartbeat:
		resp = &HeartbeatResponse{}
	case OpCreateLobby:
		resp = &CreateLobbyResponse{}
	case OpJoinLobby:
		resp = &JoinLobbyResponse{}
	case OpQuitLobby:
		resp = &QuitLobbyResponse{}
	case OpSetReady:
		resp = &SetReadyResponse{}
	case OpStartGame:
		resp = &StartGameResponse{}
	case OpPlaceTile:
		resp = &PlaceTileResponse{}
	default:
		return nil, fmt.Errorf("decoding response: unknown opcode %d", uint8(f.Opcode))
	}

	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, resp); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", f.Opcode, err)
		}
	}
	return resp, nil
}
