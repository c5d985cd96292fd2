package tcp

import (
	"context"
	"errors"
	"log"
	"net"
	"syscall"
	"time"

	"github.com/indigo-web/liso/internal/timer"
	"github.com/indigo-web/liso/transport"
)

// acceptTimeout guards against a client that disconnected between the readiness
// wait and the accept.
const acceptTimeout = 50 * time.Millisecond

type (
	// OnConnection attaches a session to a freshly admitted connection.
	OnConnection func(net.Conn) Session
	// OnReject is called for connections that don't fit into the pool. It must
	// close the connection.
	OnReject func(net.Conn)
)

// Server is the dispatching loop. Everything happens on the goroutine calling Run:
// there's neither parallelism nor locking.
type Server struct {
	listener     *transport.Listener
	pool         *Pool
	clock        *timer.Clock
	pollInterval time.Duration
	onConn       OnConnection
	onReject     OnReject
	logger       *log.Logger
}

func NewServer(
	listener *transport.Listener,
	pool *Pool,
	clock *timer.Clock,
	pollInterval time.Duration,
	onConn OnConnection,
	onReject OnReject,
	logger *log.Logger,
) *Server {
	return &Server{
		listener:     listener,
		pool:         pool,
		clock:        clock,
		pollInterval: pollInterval,
		onConn:       onConn,
		onReject:     onReject,
		logger:       logger,
	}
}

// Run serves ticks until ctx is done. Cancellation is checked once per tick, so it's
// noticed at most one poll interval late. All the connections and the listener are
// closed before returning.
func (s *Server) Run(ctx context.Context) error {
	defer s.shutdown()

	for ctx.Err() == nil {
		if err := s.Tick(); err != nil {
			return err
		}
	}

	return nil
}

// Tick takes one readiness snapshot and processes it: accepts at most one new client,
// then serves exactly one request on every ready connection, in ascending slot
// order. Connections accepted during the tick aren't served until the next one.
func (s *Server) Tick() error {
	snapshot, err := s.pool.Wait(s.pollInterval)
	if err != nil {
		return err
	}

	s.clock.Refresh()

	if snapshot.Listener {
		if err = s.accept(); err != nil {
			return err
		}
	}

	for _, slot := range snapshot.Ready {
		conn := s.pool.Get(slot)
		if conn == nil {
			continue
		}

		if conn.Session.Serve() {
			_ = s.pool.Remove(slot)
		}
	}

	return nil
}

func (s *Server) accept() error {
	conn, err := s.listener.Accept(acceptTimeout)
	switch {
	case errors.Is(err, net.ErrClosed):
		return err
	case err != nil:
		// running out of descriptors or an aborted handshake don't affect already
		// admitted clients
		s.logf("accept: %s", err)
		return nil
	case conn == nil:
		return nil
	}

	if !s.pool.Admits() {
		s.onReject(conn)
		return nil
	}

	fd, err := transport.FD(conn.(syscall.Conn))
	if err != nil {
		s.logf("accept %s: %s", conn.RemoteAddr(), err)
		_ = conn.Close()
		return nil
	}

	if _, err = s.pool.Add(fd, s.onConn(conn)); err != nil {
		_ = conn.Close()
	}

	return nil
}

func (s *Server) shutdown() {
	s.pool.Close()
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logf("closing listener: %s", err)
	}
}

func (s *Server) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}
