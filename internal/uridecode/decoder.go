package uridecode

import (
	"strings"

	"github.com/indigo-web/liso/http/status"
	"github.com/indigo-web/utils/uf"
)

// ErrURIDecoding is reported for an incomplete or non-hex percent-sequence.
var ErrURIDecoding = status.NewError(status.BadRequest, "Invalid URI encoding.")

// Decode translates percent-escaped characters into their true form. If there
// is nothing to unescape, src is returned as is, without touching buff.
func Decode(src string, buff []byte) (string, error) {
	i := strings.IndexByte(src, '%')
	if i == -1 {
		return src, nil
	}

	buff = buff[:0]

	for ; i != -1; i = strings.IndexByte(src, '%') {
		if i+2 >= len(src) {
			return "", ErrURIDecoding
		}

		hi, lo := unhex(src[i+1]), unhex(src[i+2])
		if hi < 0 || lo < 0 {
			return "", ErrURIDecoding
		}

		buff = append(buff, src[:i]...)
		buff = append(buff, byte(hi<<4|lo))
		src = src[i+3:]
	}

	return uf.B2S(append(buff, src...)), nil
}

func unhex(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}
