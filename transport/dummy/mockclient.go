package dummy

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/indigo-web/liso/internal/linereader"
	"github.com/indigo-web/liso/transport"
)

var _ transport.Client = new(MockClient)

// ErrWriteFailed is returned by every write after FailWrites was called.
var ErrWriteFailed = errors.New("write to a broken connection")

// MockClient reads from the prepared data and accumulates everything written into it.
type MockClient struct {
	reader    *linereader.Reader
	written   bytes.Buffer
	closed    bool
	failWrite bool
}

func NewMockClient(data ...string) *MockClient {
	return NewMockClientFrom(strings.NewReader(strings.Join(data, "")))
}

// NewMockClientFrom creates a client reading from an arbitrary source, e.g. one
// returning errors.
func NewMockClientFrom(src io.Reader) *MockClient {
	return &MockClient{
		reader: linereader.New(src, 4096),
	}
}

func (m *MockClient) ReadLine(maxLen int) ([]byte, error) {
	return m.reader.ReadLine(maxLen)
}

func (m *MockClient) Discard(n int64) error {
	return m.reader.Discard(n)
}

func (m *MockClient) Buffered() int {
	return m.reader.Buffered()
}

func (m *MockClient) Write(bufs ...[]byte) error {
	if m.failWrite {
		return ErrWriteFailed
	}

	for _, buf := range bufs {
		m.written.Write(buf)
	}

	return nil
}

// FailWrites makes all the following writes fail.
func (m *MockClient) FailWrites() {
	m.failWrite = true
}

// Written returns everything written so far.
func (m *MockClient) Written() []byte {
	return m.written.Bytes()
}

// Flush returns everything written so far and forgets it.
func (m *MockClient) Flush() []byte {
	data := bytes.Clone(m.written.Bytes())
	m.written.Reset()

	return data
}

func (m *MockClient) Remote() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 34567}
}

func (m *MockClient) Close() error {
	m.closed = true
	return nil
}

func (m *MockClient) Closed() bool {
	return m.closed
}
