package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/frontend/tcp"
	"github.com/cory-johannsen/tilegame/internal/game/session"
	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// Service runs one frame loop per connected client and tracks live
// connections so the sweeper can cut timed-out ones. It implements
// tcp.SessionHandler.
//
// Each session runs a read loop on the acceptor's goroutine and a write
// loop on its own, bridged by a bounded outbound channel. The two share a
// context: either side failing cancels it, which closes the socket and
// unblocks the other.
type Service struct {
	dispatcher     *Dispatcher
	outboundBuffer int
	logger         *zap.Logger

	mu    sync.Mutex
	conns map[session.ClientID]*tcp.Conn
}

// NewService creates a session service.
//
// Precondition: dispatcher and logger must be non-nil; outboundBuffer > 0.
func NewService(dispatcher *Dispatcher, outboundBuffer int, logger *zap.Logger) *Service {
	return &Service{
		dispatcher:     dispatcher,
		outboundBuffer: outboundBuffer,
		logger:         logger,
		conns:          make(map[session.ClientID]*tcp.Conn),
	}
}

// HandleSession serves one connection until it disconnects, times out, or
// fails. If the connection drops while registered, a disconnect is run on
// its behalf so its memberships are cleaned up.
//
// Postcondition: the write loop has exited and the connection is closed.
func (s *Service) HandleSession(ctx context.Context, id session.ClientID, conn *tcp.Conn) error {
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.addConn(id, conn)
	defer s.removeConn(id)

	// Closing the socket is the only way to unblock a pending read.
	go func() {
		<-sessCtx.Done()
		conn.Close()
	}()

	out := make(chan protocol.Frame, s.outboundBuffer)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(id, conn, out, cancel)
	}()

	registered, err := s.readLoop(sessCtx, id, conn, out, cancel)

	close(out)
	wg.Wait()

	if registered {
		// The socket died without an explicit disconnect; run one on the
		// client's behalf so lobby and game memberships are released.
		if _, dispErr := s.dispatcher.Dispatch(id, &protocol.DisconnectRequest{}); dispErr != nil {
			s.logger.Error("cleanup disconnect failed",
				zap.Uint32("client_id", uint32(id)),
				zap.Error(dispErr))
		}
	}
	return err
}

// readLoop decodes and dispatches frames until the connection ends. It
// reports whether the client is still registered when the loop exits.
func (s *Service) readLoop(ctx context.Context, id session.ClientID, conn *tcp.Conn, out chan<- protocol.Frame, cancel context.CancelFunc) (bool, error) {
	registered := false
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			// A peer hangup or a locally cut socket (sweeper kick,
			// shutdown) ends the session cleanly.
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
				errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return registered, nil
			}
			return registered, fmt.Errorf("reading frame for client %d: %w", id, err)
		}

		req, err := protocol.DecodeRequest(f)
		if err != nil {
			s.logger.Debug("malformed request",
				zap.Uint32("client_id", uint32(id)),
				zap.Error(err))
			if !s.enqueue(out, errorFrame(f.Opcode, "malformed request"), cancel) {
				return registered, fmt.Errorf("client %d: outbound buffer full", id)
			}
			continue
		}

		resp, err := s.dispatcher.Dispatch(id, req)
		if err != nil {
			return registered, fmt.Errorf("client %d: %w", id, err)
		}
		frame, err := protocol.EncodeResponse(resp)
		if err != nil {
			return registered, fmt.Errorf("client %d: %w", id, err)
		}
		if !s.enqueue(out, frame, cancel) {
			return registered, fmt.Errorf("client %d: outbound buffer full", id)
		}

		switch req.(type) {
		case *protocol.ConnectRequest:
			if resp.OK() {
				registered = true
			}
		case *protocol.DisconnectRequest:
			if resp.OK() {
				// Session over; the farewell is already queued.
				return false, nil
			}
		}
	}
}

// writeLoop drains the outbound channel onto the socket. A write failure
// cancels the session; remaining frames are discarded.
func (s *Service) writeLoop(id session.ClientID, conn *tcp.Conn, out <-chan protocol.Frame, cancel context.CancelFunc) {
	for f := range out {
		if err := conn.WriteFrame(f); err != nil {
			s.logger.Debug("write failed",
				zap.Uint32("client_id", uint32(id)),
				zap.Error(err))
			cancel()
			for range out {
			}
			return
		}
	}
}

// enqueue offers a frame to the outbound channel without blocking. A full
// buffer means the client cannot keep up; the session is cancelled.
func (s *Service) enqueue(out chan<- protocol.Frame, f protocol.Frame, cancel context.CancelFunc) bool {
	select {
	case out <- f:
		return true
	default:
		cancel()
		return false
	}
}

// Kick closes a client's socket without a farewell. Used by the sweeper
// after a heartbeat timeout. Returns false if the client has no live
// connection.
func (s *Service) Kick(id session.ClientID) bool {
	s.mu.Lock()
	conn, ok := s.conns[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	conn.Close()
	return true
}

// ConnCount returns the number of live connections.
func (s *Service) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Service) addConn(id session.ClientID, conn *tcp.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = conn
}

func (s *Service) removeConn(id session.ClientID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func errorFrame(op protocol.Opcode, msg string) protocol.Frame {
	payload, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: msg})
	return protocol.Frame{Kind: protocol.KindError, Opcode: op, Payload: payload}
}
