package linereader

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// scriptedReader returns the prepared results one by one and io.EOF afterwards.
type scriptedReader struct {
	steps []step
}

type step struct {
	data string
	err  error
}

func (s *scriptedReader) Read(p []byte) (int, error) {
	if len(s.steps) == 0 {
		return 0, io.EOF
	}

	st := s.steps[0]
	s.steps = s.steps[1:]

	return copy(p, st.data), st.err
}

func readLines(t *testing.T, r *Reader, maxLen int) []string {
	var lines []string

	for {
		line, err := r.ReadLine(maxLen)
		if err == io.EOF {
			return lines
		}

		require.NoError(t, err)
		lines = append(lines, string(line))
	}
}

func TestReadLine(t *testing.T) {
	t.Run("lines with LF retained", func(t *testing.T) {
		r := New(strings.NewReader("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"), 64)
		require.Equal(t, []string{"GET / HTTP/1.1\r\n", "Host: localhost\r\n", "\r\n"}, readLines(t, r, 64))
	})

	t.Run("byte by byte", func(t *testing.T) {
		src := iotest.OneByteReader(strings.NewReader("Hello\nWorld\n"))
		r := New(src, 64)
		require.Equal(t, []string{"Hello\n", "World\n"}, readLines(t, r, 64))
	})

	t.Run("line spans multiple refills", func(t *testing.T) {
		text := strings.Repeat("a", 100) + "\n"
		r := New(strings.NewReader(text), 8)
		require.Equal(t, []string{text}, readLines(t, r, 200))
	})

	t.Run("limit reached", func(t *testing.T) {
		r := New(strings.NewReader("abcdefghij\n"), 64)
		line, err := r.ReadLine(4)
		require.NoError(t, err)
		require.Equal(t, "abcd", string(line))
		require.Equal(t, 7, r.Buffered())

		line, err = r.ReadLine(64)
		require.NoError(t, err)
		require.Equal(t, "efghij\n", string(line))
	})

	t.Run("partial line at EOF", func(t *testing.T) {
		r := New(strings.NewReader("no newline"), 64)
		line, err := r.ReadLine(64)
		require.NoError(t, err)
		require.Equal(t, "no newline", string(line))

		_, err = r.ReadLine(64)
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("immediate EOF", func(t *testing.T) {
		r := New(strings.NewReader(""), 64)
		line, err := r.ReadLine(64)
		require.ErrorIs(t, err, io.EOF)
		require.Empty(t, line)
	})

	t.Run("data together with EOF", func(t *testing.T) {
		src := iotest.DataErrReader(strings.NewReader("first\nsecond\n"))
		r := New(src, 64)
		require.Equal(t, []string{"first\n", "second\n"}, readLines(t, r, 64))
	})

	t.Run("interrupted reads are retried", func(t *testing.T) {
		src := &scriptedReader{steps: []step{
			{err: unix.EINTR},
			{data: "Hel"},
			{err: unix.EINTR},
			{data: "lo\n"},
		}}
		r := New(src, 64)
		require.Equal(t, []string{"Hello\n"}, readLines(t, r, 64))
	})

	t.Run("hard error", func(t *testing.T) {
		broken := errors.New("connection reset")
		src := &scriptedReader{steps: []step{
			{data: "Hel"},
			{err: broken},
		}}
		r := New(src, 64)
		_, err := r.ReadLine(64)
		require.ErrorIs(t, err, broken)
	})

	t.Run("no progress", func(t *testing.T) {
		steps := make([]step, maxEmptyReads)
		r := New(&scriptedReader{steps: steps}, 64)
		_, err := r.ReadLine(64)
		require.ErrorIs(t, err, io.ErrNoProgress)
	})
}

func TestRead(t *testing.T) {
	t.Run("copies no more than buffered", func(t *testing.T) {
		r := New(strings.NewReader("line\nbody"), 64)
		_, err := r.ReadLine(64)
		require.NoError(t, err)

		p := make([]byte, 128)
		n, err := r.Read(p)
		require.NoError(t, err)
		require.Equal(t, "body", string(p[:n]))
	})

	t.Run("io.ReadAll", func(t *testing.T) {
		r := New(iotest.HalfReader(strings.NewReader("Hello, world!")), 4)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(data))
	})
}

func TestDiscard(t *testing.T) {
	t.Run("discard body", func(t *testing.T) {
		r := New(strings.NewReader("0123456789GET / HTTP/1.1\r\n"), 4)
		require.NoError(t, r.Discard(10))
		line, err := r.ReadLine(64)
		require.NoError(t, err)
		require.Equal(t, "GET / HTTP/1.1\r\n", string(line))
	})

	t.Run("short body", func(t *testing.T) {
		r := New(strings.NewReader("0123"), 4)
		require.ErrorIs(t, r.Discard(10), io.ErrUnexpectedEOF)
	})
}

func TestReset(t *testing.T) {
	r := New(strings.NewReader("stale data\n"), 4)
	_, err := r.ReadLine(2)
	require.NoError(t, err)
	require.NotZero(t, r.Buffered())

	r.Reset(strings.NewReader("fresh\n"))
	require.Zero(t, r.Buffered())
	require.Equal(t, []string{"fresh\n"}, readLines(t, r, 64))
}
