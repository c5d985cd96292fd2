package method

import "github.com/indigo-web/utils/strcomp"

type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
	POST
)

// List contains all the supported HTTP methods.
var List = []Method{GET, HEAD, POST}

var names = [...]string{
	Unknown: "UNKNOWN",
	GET:     "GET",
	HEAD:    "HEAD",
	POST:    "POST",
}

func (m Method) String() string {
	if int(m) >= len(names) {
		return names[Unknown]
	}

	return names[m]
}

// Parse recognizes the method case-insensitively. Everything except the supported
// methods results in Unknown.
func Parse(str string) Method {
	for _, m := range List {
		if strcomp.EqualFold(str, names[m]) {
			return m
		}
	}

	return Unknown
}
