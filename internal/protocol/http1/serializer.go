package http1

import (
	"strconv"

	"github.com/indigo-web/liso/config"
	"github.com/indigo-web/liso/http"
	"github.com/indigo-web/liso/http/method"
	"github.com/indigo-web/liso/http/mime"
	"github.com/indigo-web/liso/http/status"
	"github.com/indigo-web/liso/internal/static"
	"github.com/indigo-web/liso/internal/timer"
)

const (
	protocol = "HTTP/1.1 "
	crlf     = "\r\n"
)

// Writer transmits all the buffers as a single unit.
type Writer interface {
	Write(bufs ...[]byte) error
}

// Serializer renders responses. The headers block is always rendered into one
// reused buffer, the body is passed to the writer separately in order to avoid
// copying it.
type Serializer struct {
	server string
	clock  *timer.Clock
	writer Writer
	buff   []byte
	page   []byte
}

func NewSerializer(cfg *config.Config, clock *timer.Clock, writer Writer) *Serializer {
	return &Serializer{
		server: cfg.HTTP.ServerName,
		clock:  clock,
		writer: writer,
		buff:   make([]byte, 0, 512),
		page:   make([]byte, 0, 256),
	}
}

// Head writes the headers describing the file, but not its content.
func (s *Serializer) Head(req *http.Request, file *static.File) error {
	s.fileHeaders(req, file)

	return s.writer.Write(s.buff)
}

// Get writes the headers followed by the file content. The file must be opened,
// not just stat-ed.
func (s *Serializer) Get(req *http.Request, file *static.File) error {
	s.fileHeaders(req, file)

	return s.writer.Write(s.buff, file.Content())
}

// Post responds with the file if it exists, otherwise with 204 No Content. The body
// of the request is never interpreted.
func (s *Serializer) Post(req *http.Request, file *static.File) error {
	if file == nil {
		return s.NoContent(req)
	}

	return s.Get(req, file)
}

func (s *Serializer) NoContent(req *http.Request) error {
	s.headers(req, status.NoContent, 0, mime.HTML)
	s.crlf()

	return s.writer.Write(s.buff)
}

// Error writes a self-contained HTML page describing the error. Responses to HEAD
// requests carry the same headers, but no page.
func (s *Serializer) Error(req *http.Request, err status.HTTPError) error {
	s.renderPage(err)
	s.headers(req, err.Code, int64(len(s.page)), mime.HTML)
	s.crlf()

	if req.Method == method.HEAD {
		return s.writer.Write(s.buff)
	}

	return s.writer.Write(s.buff, s.page)
}

func (s *Serializer) fileHeaders(req *http.Request, file *static.File) {
	s.headers(req, status.OK, file.Size, mime.ByFilename(file.Name))
	s.header("Last-Modified: ", timer.Format(file.ModTime))
	s.crlf()
}

// headers renders the status line and the headers common for every response. The
// block is left unterminated, so more headers can be appended.
func (s *Serializer) headers(req *http.Request, code status.Code, length int64, contentType string) {
	s.buff = append(s.buff[:0], protocol...)
	s.buff = append(s.buff, status.Line(code)...)
	s.header("Date: ", s.clock.Date())
	s.header("Server: ", s.server)

	if req.Closing() {
		s.header("Connection: ", "close")
	}

	s.buff = append(s.buff, "Content-Length: "...)
	s.buff = strconv.AppendInt(s.buff, length, 10)
	s.crlf()
	s.header("Content-Type: ", contentType)
}

func (s *Serializer) header(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, value...)
	s.crlf()
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}

func (s *Serializer) renderPage(err status.HTTPError) {
	s.page = append(s.page[:0], "<html><title>Liso Error</title><body>\r\nError "...)
	s.page = strconv.AppendUint(s.page, uint64(err.Code), 10)
	s.page = append(s.page, " -- "...)
	s.page = append(s.page, status.Text(err.Code)...)
	s.page = append(s.page, "\r\n<br><p>"...)
	s.page = append(s.page, err.Message...)
	s.page = append(s.page, "</p></body></html>\r\n"...)
}
