package http

import (
	"net"

	"github.com/indigo-web/liso/http/method"
)

// Request holds everything known about a single request. It lives exactly as long
// as the request does: the same entity is reused across requests on a connection,
// but is reset before each of them.
type Request struct {
	// Method is an enum representing the request method. Unknown if the method isn't
	// supported, in which case MethodRaw still holds the original token.
	Method    method.Method
	MethodRaw string
	// URI is the request target exactly as it was received.
	URI   string
	Proto string
	// Path is the filesystem path the URI resolves to.
	Path string
	// Query holds the arguments for dynamic content. Static requests never have one.
	Query string
	// ContentLength is the declared body length, -1 if absent. Meaningful only
	// for POST requests.
	ContentLength int64
	// Static is false if the URI points at dynamic content.
	Static bool
	Remote net.Addr
	// close is sticky: once set, it stays set until Reset.
	close bool
}

func NewRequest() *Request {
	return &Request{ContentLength: -1}
}

// Reset prepares the request for the next transaction.
func (r *Request) Reset(remote net.Addr) {
	*r = Request{
		ContentLength: -1,
		Remote:        remote,
	}
}

// MarkClose requests the connection to be closed after the response. There is
// intentionally no way to undo it.
func (r *Request) MarkClose() {
	r.close = true
}

// Closing reports whether the connection is going to be closed after the response.
func (r *Request) Closing() bool {
	return r.close
}
