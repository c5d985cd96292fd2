package http1

type parserState uint8

const (
	eRequestLine parserState = iota + 1
	eHeaders
	eValidate
	eBody
	eDone
	eError
)

func (p parserState) String() string {
	switch p {
	case eRequestLine:
		return "request line"
	case eHeaders:
		return "headers"
	case eValidate:
		return "validation"
	case eBody:
		return "body"
	case eDone:
		return "done"
	case eError:
		return "error"
	default:
		return "unknown"
	}
}
