// Package tcp is the wire frontend: it accepts TCP connections and frames
// them for the request dispatcher. It knows nothing about game semantics.
package tcp

import (
	"net"
	"sync"
	"time"

	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// Conn wraps a TCP connection with frame-level reads and writes and
// per-operation deadlines. Reads and writes may run concurrently; each
// side is serialized independently.
type Conn struct {
	raw net.Conn

	readMu  sync.Mutex
	writeMu sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection for framed traffic.
//
// Precondition: raw must be a valid, open network connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ReadFrame blocks until a full frame arrives, the read deadline passes, or
// the connection closes.
//
// Postcondition: Returns the next frame, or an error (including io.EOF).
func (c *Conn) ReadFrame() (protocol.Frame, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	return protocol.ReadFrame(c.raw)
}

// WriteFrame writes one frame to the client.
//
// Postcondition: The frame is fully written, or an error is returned.
func (c *Conn) WriteFrame(f protocol.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return protocol.WriteFrame(c.raw, f)
}

// Close closes the underlying TCP connection. Safe to call more than once.
//
// Postcondition: The connection is closed and no longer usable.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
