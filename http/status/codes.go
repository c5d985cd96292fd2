package status

type (
	Code   uint16
	Status string
)

// Status codes the server is able to produce.
const (
	OK        Code = 200 // RFC 9110, 15.3.1
	NoContent Code = 204 // RFC 9110, 15.3.5

	BadRequest     Code = 400 // RFC 9110, 15.5.1
	Forbidden      Code = 403 // RFC 9110, 15.5.4
	NotFound       Code = 404 // RFC 9110, 15.5.5
	LengthRequired Code = 411 // RFC 9110, 15.5.12

	InternalServerError     Code = 500 // RFC 9110, 15.6.1
	NotImplemented          Code = 501 // RFC 9110, 15.6.2
	ServiceUnavailable      Code = 503 // RFC 9110, 15.6.4
	HTTPVersionNotSupported Code = 505 // RFC 9110, 15.6.6
)

// KnownCodes lists every code from above, in ascending order.
var KnownCodes = []Code{
	OK, NoContent, BadRequest, Forbidden, NotFound, LengthRequired,
	InternalServerError, NotImplemented, ServiceUnavailable, HTTPVersionNotSupported,
}

// Text returns a reason phrase for the HTTP status code. It returns the empty
// string if the code is unknown.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case NoContent:
		return "No Content"
	case BadRequest:
		return "Bad Request"
	case Forbidden:
		return "Forbidden"
	case NotFound:
		return "Not Found"
	case LengthRequired:
		return "Length Required"
	case InternalServerError:
		return "Internal Server Error"
	case NotImplemented:
		return "Not Implemented"
	case ServiceUnavailable:
		return "Service Unavailable"
	case HTTPVersionNotSupported:
		return "HTTP Version Not Supported"
	default:
		return ""
	}
}

// Line returns a rendered status line without the protocol, e.g. "404 Not Found\r\n".
func Line(code Code) string {
	if line, ok := lines[code]; ok {
		return line
	}

	return renderLine(code)
}

var lines = func() map[Code]string {
	m := make(map[Code]string, len(KnownCodes))
	for _, code := range KnownCodes {
		m[code] = renderLine(code)
	}

	return m
}()

func renderLine(code Code) string {
	text := Text(code)
	if len(text) == 0 {
		text = "Unknown Status Code"
	}

	return StringCode(code) + " " + string(text) + "\r\n"
}
