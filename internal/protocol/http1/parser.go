package http1

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/indigo-web/liso/config"
	"github.com/indigo-web/liso/http"
	"github.com/indigo-web/liso/http/method"
	"github.com/indigo-web/liso/http/status"
	"github.com/indigo-web/liso/transport"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

const (
	protoHTTP11      = "HTTP/1.1"
	connectionClose  = "Connection: close"
	contentLengthKey = "Content-Length"
)

// Parser reads requests from the client one at a time. The data is pulled line by
// line, so nothing except the request line is kept in memory.
type Parser struct {
	state       parserState
	cfg         *config.Config
	client      transport.Client
	requestLine []byte
	headersSize int
}

func NewParser(cfg *config.Config, client transport.Client) *Parser {
	return &Parser{
		state:       eRequestLine,
		cfg:         cfg,
		client:      client,
		requestLine: make([]byte, 0, 256),
	}
}

// Parse reads the next request into req. Nil error means the request is complete and
// can be responded to. status.ErrCloseConnection means the connection must be closed
// without responding. Any other error is an HTTP error to be reported to the client.
// On any error the request is marked closing.
//
// The string fields of req stay valid until the next call.
func (p *Parser) Parse(req *http.Request) error {
	p.state = eRequestLine
	p.headersSize = 0

	for {
		var err error

		switch p.state {
		case eRequestLine:
			err = p.readRequestLine(req)
		case eHeaders:
			err = p.readHeaders(req)
		case eValidate:
			err = p.validate(req)
		case eBody:
			err = p.readBody(req)
		case eDone:
			return nil
		default:
			panic("BUG: parser is in the " + p.state.String() + " state")
		}

		if err != nil {
			p.state = eError
			req.MarkClose()
			return err
		}
	}
}

func (p *Parser) readRequestLine(req *http.Request) error {
	maxLen := p.cfg.HTTP.MaxLineSize
	line, err := p.client.ReadLine(maxLen)
	if err != nil {
		return readErr(err)
	}

	if truncated(line, maxLen) {
		return status.ErrTooLongRequestLine
	}

	// the client's line is overwritten by the next read
	p.requestLine = append(p.requestLine[:0], line...)
	tokens := strings.Fields(uf.B2S(p.requestLine))
	if len(tokens) != 3 {
		return status.ErrBadRequest
	}

	req.MethodRaw, req.URI, req.Proto = tokens[0], tokens[1], tokens[2]
	req.Method = method.Parse(req.MethodRaw)
	p.state = eHeaders

	return nil
}

func (p *Parser) readHeaders(req *http.Request) error {
	maxLen := p.cfg.HTTP.MaxLineSize

	for {
		line, err := p.client.ReadLine(maxLen)
		if err != nil {
			return readErr(err)
		}

		p.headersSize += len(line)
		if p.headersSize > maxLen || truncated(line, maxLen) {
			return status.ErrHeaderFieldsTooLarge
		}

		if isEmptyLine(line) {
			p.state = eValidate
			return nil
		}

		if bytes.Contains(line, uf.S2B(connectionClose)) {
			req.MarkClose()
		}

		if bytes.Contains(line, uf.S2B(contentLengthKey)) {
			if req.ContentLength, err = parseContentLength(line); err != nil {
				return err
			}
		}
	}
}

func (p *Parser) validate(req *http.Request) error {
	switch {
	case req.Method == method.Unknown:
		return status.ErrMethodNotImplemented
	case !strcomp.EqualFold(req.Proto, protoHTTP11):
		return status.ErrHTTPVersionNotSupported
	case req.Method == method.POST && req.ContentLength == -1:
		return status.ErrLengthRequired
	}

	if req.Method == method.POST {
		p.state = eBody
	} else {
		p.state = eDone
	}

	return nil
}

// readBody drains the declared body, leaving the stream at the beginning of
// the next request.
func (p *Parser) readBody(req *http.Request) error {
	if req.ContentLength > p.cfg.HTTP.MaxBodySize {
		return status.ErrBodyTooLarge
	}

	if err := p.client.Discard(req.ContentLength); err != nil {
		return status.ErrCloseConnection
	}

	p.state = eDone

	return nil
}

// truncated reports whether the line hit the limit before its LF.
func truncated(line []byte, maxLen int) bool {
	return len(line) >= maxLen && line[len(line)-1] != '\n'
}

func isEmptyLine(line []byte) bool {
	switch len(line) {
	case 1:
		return line[0] == '\n'
	case 2:
		return line[0] == '\r' && line[1] == '\n'
	default:
		return false
	}
}

// parseContentLength takes the second whitespace-separated token of the line as
// the value.
func parseContentLength(line []byte) (int64, error) {
	tokens := strings.Fields(uf.B2S(line))
	if len(tokens) < 2 {
		return 0, status.ErrBadContentLength
	}

	value, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil || value < 0 {
		return 0, status.ErrBadContentLength
	}

	return value, nil
}

// readErr classifies a transport failure. The peer going away isn't worth a
// response, anything else is treated as the server's fault.
func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return status.ErrCloseConnection
	}

	return status.ErrInternalServerError
}
