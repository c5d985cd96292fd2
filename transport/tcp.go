package transport

import (
	"errors"
	"net"
	"os"
	"syscall"
	"time"
)

// Listener is a TCP listening socket, exposing its descriptor for readiness waiting.
type Listener struct {
	l  *net.TCPListener
	fd int
}

func bindTCP(addr string) (*net.TCPListener, error) {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	return net.ListenTCP("tcp", tcpaddr)
}

// Bind creates, binds and starts listening on the socket.
func Bind(addr string) (*Listener, error) {
	l, err := bindTCP(addr)
	if err != nil {
		return nil, err
	}

	fd, err := FD(l)
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	return &Listener{l: l, fd: fd}, nil
}

// FD returns the descriptor of the socket. The descriptor stays owned by the socket.
func FD(conn syscall.Conn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return -1, err
	}

	fd := -1
	err = raw.Control(func(sysfd uintptr) {
		fd = int(sysfd)
	})

	return fd, err
}

func (l *Listener) FD() int {
	return l.fd
}

func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}

// Accept accepts a single connection. The listener must be reported ready beforehand;
// the timeout only guards against a client that has gone away in between, in which
// case a nil connection is returned without an error.
func (l *Listener) Accept(timeout time.Duration) (net.Conn, error) {
	if err := l.l.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	conn, err := l.l.Accept()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil
		}

		return nil, err
	}

	return conn, nil
}

func (l *Listener) Close() error {
	return l.l.Close()
}
