package transport

import (
	"net"
	"time"

	"github.com/indigo-web/liso/config"
	"github.com/indigo-web/liso/internal/linereader"
)

type Client interface {
	// ReadLine returns the next line including LF, at most maxLen bytes long.
	ReadLine(maxLen int) ([]byte, error)
	// Discard skips the next n bytes of the stream.
	Discard(n int64) error
	// Buffered reports how many bytes were already received, but not consumed yet.
	Buffered() int
	// Write transmits all the passed buffers at once.
	Write(bufs ...[]byte) error
	Remote() net.Addr
	Close() error
}

type client struct {
	conn   *deadlineConn
	reader *linereader.Reader
}

func NewClient(conn net.Conn, cfg config.NET) Client {
	dconn := &deadlineConn{
		Conn:         conn,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}

	return &client{
		conn:   dconn,
		reader: linereader.New(dconn, cfg.ReadBufferSize),
	}
}

func (c *client) ReadLine(maxLen int) ([]byte, error) {
	return c.reader.ReadLine(maxLen)
}

func (c *client) Discard(n int64) error {
	return c.reader.Discard(n)
}

func (c *client) Buffered() int {
	return c.reader.Buffered()
}

// Write writes all the buffers with a single vectored write, if the platform supports it.
func (c *client) Write(bufs ...[]byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.conn.writeTimeout)); err != nil {
		return err
	}

	buffers := net.Buffers(bufs)
	_, err := buffers.WriteTo(c.conn.Conn)

	return err
}

// Remote returns the remote address of the connection.
func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection.
func (c *client) Close() error {
	return c.conn.Close()
}

// deadlineConn refreshes the read deadline before every read. Timeouts are therefore
// handled automatically, and a client that stopped sending data can't block reading
// forever.
type deadlineConn struct {
	net.Conn
	readTimeout, writeTimeout time.Duration
}

func (d *deadlineConn) Read(b []byte) (int, error) {
	if err := d.SetReadDeadline(time.Now().Add(d.readTimeout)); err != nil {
		return 0, err
	}

	return d.Conn.Read(b)
}
