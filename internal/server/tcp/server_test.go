package tcp

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/indigo-web/liso/internal/timer"
	"github.com/indigo-web/liso/transport"
	"github.com/stretchr/testify/require"
)

// lineSession echoes every line back. The line "close" closes the connection.
type lineSession struct {
	conn   net.Conn
	reader *bufio.Reader
	served int
}

func (l *lineSession) Serve() bool {
	line, err := l.reader.ReadString('\n')
	if err != nil {
		return true
	}

	l.served++
	if _, err = l.conn.Write([]byte(line)); err != nil {
		return true
	}

	return line == "close\n"
}

func (l *lineSession) Buffered() int {
	return l.reader.Buffered()
}

func (l *lineSession) Close() error {
	return l.conn.Close()
}

type testServer struct {
	*Server
	pool     *Pool
	listener *transport.Listener
	sessions []*lineSession
	rejected int
}

func newTestServer(t *testing.T, capacity int) *testServer {
	listener, err := transport.Bind("127.0.0.1:0")
	require.NoError(t, err)

	ts := &testServer{
		pool:     NewPool(listener.FD(), capacity),
		listener: listener,
	}

	onConn := func(conn net.Conn) Session {
		session := &lineSession{conn: conn, reader: bufio.NewReader(conn)}
		ts.sessions = append(ts.sessions, session)
		return session
	}

	onReject := func(conn net.Conn) {
		ts.rejected++
		_, _ = conn.Write([]byte("busy\n"))
		_ = conn.Close()
	}

	ts.Server = NewServer(listener, ts.pool, timer.New(nil), 20*time.Millisecond, onConn, onReject, nil)
	t.Cleanup(ts.shutdown)

	return ts
}

func (ts *testServer) dial(t *testing.T) net.Conn {
	conn, err := net.Dial("tcp", ts.listener.Addr().String())
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func (ts *testServer) tickUntil(t *testing.T, cond func() bool) {
	for i := 0; i < 250 && !cond(); i++ {
		require.NoError(t, ts.Tick())
	}

	require.True(t, cond())
}

func readLine(t *testing.T, conn net.Conn) string {
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)

	return line
}

func TestServer(t *testing.T) {
	t.Run("admission control", func(t *testing.T) {
		ts := newTestServer(t, 2)
		first := ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 1 })
		second := ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 2 })

		third := ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.rejected == 1 })
		require.True(t, ts.pool.Full())
		require.Equal(t, "busy\n", readLine(t, third))
		_, err := third.Read(make([]byte, 1))
		require.ErrorIs(t, err, io.EOF)

		for _, conn := range []net.Conn{first, second} {
			_, err = conn.Write([]byte("ping\n"))
			require.NoError(t, err)
		}

		ts.tickUntil(t, func() bool { return ts.sessions[0].served == 1 && ts.sessions[1].served == 1 })
		require.Equal(t, "ping\n", readLine(t, first))
		require.Equal(t, "ping\n", readLine(t, second))
	})

	t.Run("closed slot is reused", func(t *testing.T) {
		ts := newTestServer(t, 2)
		first := ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 1 })
		_ = ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 2 })

		_, err := first.Write([]byte("close\n"))
		require.NoError(t, err)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 1 })
		require.Nil(t, ts.pool.Get(0))
		require.False(t, ts.pool.Full())

		_ = ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 2 })
		require.NotNil(t, ts.pool.Get(0))
		require.Equal(t, 1, ts.pool.HighWater())
	})

	t.Run("peer disconnect", func(t *testing.T) {
		ts := newTestServer(t, 2)
		conn := ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 1 })
		require.NoError(t, conn.Close())
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 0 })
	})

	t.Run("pipelined lines", func(t *testing.T) {
		ts := newTestServer(t, 2)
		conn := ts.dial(t)
		ts.tickUntil(t, func() bool { return ts.pool.Len() == 1 })

		_, err := conn.Write([]byte("a\nb\nc\n"))
		require.NoError(t, err)
		ts.tickUntil(t, func() bool { return ts.sessions[0].served == 3 })

		reader := bufio.NewReader(conn)
		for _, want := range []string{"a\n", "b\n", "c\n"} {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			require.Equal(t, want, line)
		}
	})
}

func TestServer_Run(t *testing.T) {
	ts := newTestServer(t, 2)
	conn := ts.dial(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ts.Run(ctx)
	}()

	_, err := conn.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, "hello\n", readLine(t, conn))

	cancel()
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "server didn't stop in time")
	}

	// the connection was closed by the shutdown
	_, err = conn.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
	_, err = net.Dial("tcp", ts.listener.Addr().String())
	require.Error(t, err)
}
