package testutil

import (
	"net"
	"testing"
	"time"

	"github.com/cory-johannsen/tilegame/internal/frontend/tcp"
	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// GameClient is a framed-protocol test client for integration testing.
type GameClient struct {
	conn *tcp.Conn
	t    *testing.T
}

// NewGameClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected GameClient or fails the test.
func NewGameClient(t *testing.T, addr string) *GameClient {
	t.Helper()
	start := time.Now()

	raw, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}

	conn := tcp.NewConn(raw, 5*time.Second, 5*time.Second)
	t.Cleanup(func() {
		conn.Close()
	})

	t.Logf("game client connected to %s [%s]", addr, time.Since(start))
	return &GameClient{conn: conn, t: t}
}

// Send writes one request frame to the server.
//
// Postcondition: The encoded frame is written, or the test fails.
func (c *GameClient) Send(req protocol.Request) {
	c.t.Helper()
	frame, err := protocol.EncodeRequest(req)
	if err != nil {
		c.t.Fatalf("encoding %s request: %v", req.Opcode(), err)
	}
	if err := c.conn.WriteFrame(frame); err != nil {
		c.t.Fatalf("sending %s request: %v", req.Opcode(), err)
	}
}

// Recv reads one response frame from the server.
//
// Postcondition: Returns the decoded response, or fails the test.
func (c *GameClient) Recv() protocol.Response {
	c.t.Helper()
	frame, err := c.conn.ReadFrame()
	if err != nil {
		c.t.Fatalf("reading response frame: %v", err)
	}
	resp, err := protocol.DecodeResponse(frame)
	if err != nil {
		c.t.Fatalf("decoding response frame: %v", err)
	}
	return resp
}

// RoundTrip sends a request and returns the server's response.
func (c *GameClient) RoundTrip(req protocol.Request) protocol.Response {
	c.t.Helper()
	c.Send(req)
	return c.Recv()
}

// Close closes the underlying connection.
func (c *GameClient) Close() {
	c.conn.Close()
}
