package http

import (
	"errors"
	"log"
	"net"

	"github.com/indigo-web/liso/config"
	"github.com/indigo-web/liso/http"
	"github.com/indigo-web/liso/http/method"
	"github.com/indigo-web/liso/http/status"
	"github.com/indigo-web/liso/internal/protocol/http1"
	"github.com/indigo-web/liso/internal/resolve"
	"github.com/indigo-web/liso/internal/static"
	"github.com/indigo-web/liso/internal/timer"
	"github.com/indigo-web/liso/transport"
)

// Server runs request/response cycles on the connections it was given. All the
// sessions share the same resolver and clock, so they must never be served
// concurrently.
type Server struct {
	cfg      *config.Config
	clock    *timer.Clock
	resolver *resolve.Resolver
	logger   *log.Logger
	access   accessLog
}

// NewServer creates the server. If logger is nil, nothing is logged at all. The access
// log is colored only if colored is set.
func NewServer(cfg *config.Config, clock *timer.Clock, logger *log.Logger, colored bool) *Server {
	return &Server{
		cfg:      cfg,
		clock:    clock,
		resolver: resolve.New(cfg),
		logger:   logger,
		access:   newAccessLog(logger, colored),
	}
}

// Attach wraps an admitted connection into a session.
func (s *Server) Attach(conn net.Conn) *Session {
	return s.NewSession(transport.NewClient(conn, s.cfg.NET))
}

func (s *Server) NewSession(client transport.Client) *Session {
	return &Session{
		server:     s,
		client:     client,
		parser:     http1.NewParser(s.cfg, client),
		serializer: http1.NewSerializer(s.cfg, s.clock, client),
		request:    http.NewRequest(),
	}
}

// Reject responds to a connection that can't be admitted with 503 Service Unavailable
// and closes it. Nothing is read from the connection.
func (s *Server) Reject(conn net.Conn) {
	s.RejectClient(transport.NewClient(conn, s.cfg.NET))
}

func (s *Server) RejectClient(client transport.Client) {
	req := http.NewRequest()
	req.Reset(client.Remote())
	req.MarkClose()

	serializer := http1.NewSerializer(s.cfg, s.clock, client)
	if err := serializer.Error(req, status.ErrServiceUnavailable.(status.HTTPError)); err != nil {
		s.logf("rejecting %s: %s", client.Remote(), err)
	} else {
		s.logf("rejected %s: too many connections", client.Remote())
	}

	_ = client.Close()
}

func (s *Server) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

// Session is the state of a single admitted connection.
type Session struct {
	server     *Server
	client     transport.Client
	parser     *http1.Parser
	serializer *http1.Serializer
	request    *http.Request
}

// Serve runs exactly one request/response cycle and reports whether the connection
// must be closed afterward.
func (s *Session) Serve() (closing bool) {
	req := s.request
	req.Reset(s.client.Remote())

	if err := s.parser.Parse(req); err != nil {
		if errors.Is(err, status.ErrCloseConnection) {
			return true
		}

		return s.fail(req, status.AsHTTPError(err))
	}

	if err := s.server.resolver.Resolve(req); err != nil {
		// a URI that can't be decoded is as malformed as a broken request line
		req.MarkClose()
		return s.fail(req, status.AsHTTPError(err))
	}

	if !req.Static {
		return s.fail(req, status.ErrDynamicContent.(status.HTTPError))
	}

	return s.respond(req)
}

// Buffered returns the number of already received, but not yet processed bytes.
func (s *Session) Buffered() int {
	return s.client.Buffered()
}

func (s *Session) Close() error {
	return s.client.Close()
}

func (s *Session) respond(req *http.Request) bool {
	switch req.Method {
	case method.HEAD:
		file, err := static.Stat(req.Path)
		if err != nil {
			return s.fail(req, status.AsHTTPError(err))
		}

		return s.done(req, status.OK, s.serializer.Head(req, file))
	case method.GET:
		file, err := static.Open(req.Path)
		if err != nil {
			return s.fail(req, status.AsHTTPError(err))
		}

		err = s.serializer.Get(req, file)
		_ = file.Close()

		return s.done(req, status.OK, err)
	case method.POST:
		file, err := static.Open(req.Path)
		switch {
		case errors.Is(err, status.ErrNotFound):
			return s.done(req, status.NoContent, s.serializer.Post(req, nil))
		case err != nil:
			return s.fail(req, status.AsHTTPError(err))
		}

		err = s.serializer.Post(req, file)
		_ = file.Close()

		return s.done(req, status.OK, err)
	default:
		panic("BUG: unsupported method passed validation: " + req.MethodRaw)
	}
}

func (s *Session) fail(req *http.Request, httpErr status.HTTPError) bool {
	return s.done(req, httpErr.Code, s.serializer.Error(req, httpErr))
}

// done finalizes the cycle. A failed write leaves the stream in an unknown state,
// so the connection can't be reused.
func (s *Session) done(req *http.Request, code status.Code, writeErr error) bool {
	s.server.access.Log(req, code)

	if writeErr != nil {
		s.server.logf("writing response to %s: %s", s.client.Remote(), writeErr)
		return true
	}

	return req.Closing()
}
