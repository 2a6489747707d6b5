// Package protocol defines the framed wire protocol spoken between clients
// and the game server: opcodes, request/response payloads, and the byte-level
// codec. The session layer consumes it only through ReadFrame/WriteFrame and
// the Decode/Encode helpers.
package protocol

import "fmt"

// FrameKind distinguishes the direction and role of a frame.
type FrameKind uint8

const (
	// KindRequest frames carry a client request payload.
	KindRequest FrameKind = 1
	// KindResponse frames carry a server response payload.
	KindResponse FrameKind = 2
	// KindError frames carry a transport-level error notice.
	KindError FrameKind = 3
)

// Opcode identifies a protocol operation. Requests and their responses share
// an opcode; the frame kind tells them apart.
type Opcode uint8

// Control operations.
const (
	OpConnect    Opcode = 1
	OpDisconnect Opcode = 2
	OpHeartbeat  Opcode = 3
)

// Lobby operations.
const (
	OpCreateLobby Opcode = 16
	OpJoinLobby   Opcode = 17
	OpQuitLobby   Opcode = 18
	OpSetReady    Opcode = 19
)

// Game operations.
const (
	OpStartGame Opcode = 32
	OpPlaceTile Opcode = 33
)

// String returns the operation name for logging.
func (o Opcode) String() string {
	switch o {
	case OpConnect:
		return "connect"
	case OpDisconnect:
		return "disconnect"
	case OpHeartbeat:
		return "heartbeat"
	case OpCreateLobby:
		return "create_lobby"
	case OpJoinLobby:
		return "join_lobby"
	case OpQuitLobby:
		return "quit_lobby"
	case OpSetReady:
		return "set_ready"
	case OpStartGame:
		return "start_game"
	case OpPlaceTile:
		return "place_tile"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// Frame is one discrete protocol message unit.
type Frame struct {
	Kind    FrameKind
	Opcode  Opcode
	Payload []byte
}
