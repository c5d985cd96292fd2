// Package linereader implements buffered, line-oriented reading from a socket.
//
// The reader owns a fixed buffer that is refilled with exactly one underlying read
// when empty. Lines are bounded: no call ever accumulates more than the requested
// maximum, so an unterminated line can't grow memory past a known limit.
package linereader

import (
	"bytes"
	"errors"
	"io"

	"github.com/indigo-web/liso/internal/buffer"
	"golang.org/x/sys/unix"
)

// maxEmptyReads limits how many times in a row a source may return neither data
// nor an error before it is considered broken.
const maxEmptyReads = 100

type Reader struct {
	src io.Reader
	// err is an error, returned by the source together with the last data. It is
	// reported on the next refill, after the data was consumed.
	err    error
	buff   []byte
	cursor int
	unread int
	line   *buffer.Buffer
}

func New(src io.Reader, size int) *Reader {
	return &Reader{
		src:  src,
		buff: make([]byte, size),
		line: buffer.New(size, size),
	}
}

// Reset discards all the buffered data and switches to the new source.
func (r *Reader) Reset(src io.Reader) {
	r.src = src
	r.err = nil
	r.cursor, r.unread = 0, 0
	r.line.Clear()
}

// Buffered returns the number of bytes that can be read without touching the source.
func (r *Reader) Buffered() int {
	return r.unread
}

// ReadLine returns the next line including its terminating LF. At most maxLen bytes
// are returned. If the limit is reached before LF, the line is returned unterminated
// and the rest of it stays buffered. io.EOF is returned only if no bytes were produced;
// a trailing line without LF is returned with nil error.
//
// The returned slice is valid until the next call.
func (r *Reader) ReadLine(maxLen int) ([]byte, error) {
	r.line.Clear()
	r.line.Limit(maxLen)

	for r.line.Free() > 0 {
		if err := r.fill(); err != nil {
			if err == io.EOF && r.line.Len() > 0 {
				return r.line.Bytes(), nil
			}

			return nil, err
		}

		chunk := r.buff[r.cursor : r.cursor+min(r.unread, r.line.Free())]
		lf := bytes.IndexByte(chunk, '\n')
		if lf != -1 {
			chunk = chunk[:lf+1]
		}

		r.line.Append(chunk)
		r.advance(len(chunk))

		if lf != -1 {
			break
		}
	}

	return r.line.Bytes(), nil
}

// Read copies at most min(len(p), Buffered()) bytes, refilling the buffer first if
// it is empty.
func (r *Reader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	if err = r.fill(); err != nil {
		return 0, err
	}

	n = copy(p, r.buff[r.cursor:r.cursor+r.unread])
	r.advance(n)

	return n, nil
}

// Discard skips the next n bytes. If the source ends earlier, io.ErrUnexpectedEOF
// is returned.
func (r *Reader) Discard(n int64) error {
	for n > 0 {
		if err := r.fill(); err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}

			return err
		}

		skip := int(min(int64(r.unread), n))
		r.advance(skip)
		n -= int64(skip)
	}

	return nil
}

func (r *Reader) advance(n int) {
	r.cursor += n
	r.unread -= n
}

// fill refills the buffer if it's empty. Interrupted reads are retried transparently.
func (r *Reader) fill() error {
	if r.unread > 0 {
		return nil
	}

	for empty := 0; ; {
		if r.err != nil {
			err := r.err
			r.err = nil
			return err
		}

		n, err := r.src.Read(r.buff)
		if n > 0 {
			r.cursor, r.unread = 0, n
			if !errors.Is(err, unix.EINTR) {
				r.err = err
			}

			return nil
		}

		switch {
		case err == nil:
			if empty++; empty >= maxEmptyReads {
				return io.ErrNoProgress
			}
		case errors.Is(err, unix.EINTR):
		default:
			return err
		}
	}
}
