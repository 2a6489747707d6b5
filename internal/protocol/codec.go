package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxPayloadSize bounds a single frame payload. A peer announcing a larger
// payload is treated as a framing error.
const MaxPayloadSize = 64 * 1024

// headerSize is kind (1) + opcode (1) + payload length (4).
const headerSize = 6

// ErrPayloadTooLarge is returned when a frame header announces a payload
// exceeding MaxPayloadSize.
var ErrPayloadTooLarge = errors.New("frame payload too large")

// ErrInvalidFrameKind is returned when a frame header carries an unknown kind.
var ErrInvalidFrameKind = errors.New("invalid frame kind")

// WriteFrame writes a single frame to w: a fixed header followed by the
// payload bytes.
//
// Precondition: len(f.Payload) must not exceed MaxPayloadSize.
// Postcondition: The complete frame is written to w, or an error is returned.
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return fmt.Errorf("writing frame %s: %w", f.Opcode, ErrPayloadTooLarge)
	}

	buf := make([]byte, headerSize+len(f.Payload))
	buf[0] = byte(f.Kind)
	buf[1] = byte(f.Opcode)
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(f.Payload)))
	copy(buf[headerSize:], f.Payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame %s: %w", f.Opcode, err)
	}
	return nil
}

// ReadFrame reads a single frame from r. It blocks until a complete frame
// arrives or r fails.
//
// Postcondition: Returns a complete Frame, or an error (including io.EOF when
// the peer closed the stream cleanly between frames).
func ReadFrame(r io.Reader) (Frame, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}

	kind := FrameKind(header[0])
	switch kind {
	case KindRequest, KindResponse, KindError:
	default:
		return Frame{}, fmt.Errorf("reading frame: %w: %d", ErrInvalidFrameKind, header[0])
	}

	length := binary.BigEndian.Uint32(header[2:6])
	if length > MaxPayloadSize {
		return Frame{}, fmt.Errorf("reading frame: %w: %d bytes", ErrPayloadTooLarge, length)
	}

	f := Frame{Kind: kind, Opcode: Opcode(header[1])}
	if length > 0 {
		f.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return Frame{}, fmt.Errorf("reading frame payload: %w", err)
		}
	}
	return f, nil
}
