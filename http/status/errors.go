package status

import "errors"

// HTTPError is a failure that has to be reported to the client. Message is the
// human-readable description rendered into the error page.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// ErrCloseConnection signals that the connection must be torn down without any
// response, e.g. the client went away or a write has already failed.
var ErrCloseConnection = errors.New("actively closing the connection")

var (
	ErrBadRequest              = NewError(BadRequest, "The request is not understood by the server")
	ErrTooLongRequestLine      = NewError(BadRequest, "Request line too long.")
	ErrHeaderFieldsTooLarge    = NewError(BadRequest, "Request header too long.")
	ErrBadContentLength        = NewError(BadRequest, "Content-Length is malformed.")
	ErrBodyTooLarge            = NewError(BadRequest, "Request body too large.")
	ErrForbidden               = NewError(Forbidden, "Server couldn't read this file")
	ErrNotFound                = NewError(NotFound, "Server couldn't find this file")
	ErrLengthRequired          = NewError(LengthRequired, "Content-Length is required.")
	ErrInternalServerError     = NewError(InternalServerError, "The server encountered an unexpected condition.")
	ErrMethodNotImplemented    = NewError(NotImplemented, "The method is not valid or not implemented by the server")
	ErrDynamicContent          = NewError(NotImplemented, "Dynamic content is not supported by the server")
	ErrServiceUnavailable      = NewError(ServiceUnavailable, "Server is too busy right now. Please try again later.")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "Only HTTP/1.1 is supported by the server")
)

// AsHTTPError unwraps err into an HTTPError. Errors that aren't HTTP errors are
// reported as internal server errors, so no internal text leaks to the client.
func AsHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	return ErrInternalServerError.(HTTPError)
}
