package config

import (
	"errors"
	"time"
)

type (
	NET struct {
		// Addr is the host to bind to. Empty value means all the interfaces.
		Addr string `test:"nullable"`
		// Port is the HTTP port to listen on.
		Port uint16
		// ReadBufferSize is a size of the per-connection buffer requests are read into.
		ReadBufferSize int
		// ReadTimeout limits how long a single read from a client may block. As all the
		// clients are served by a single loop, it also bounds how long one slow client
		// may delay the others.
		ReadTimeout time.Duration
		// WriteTimeout limits how long a single response may take to be transmitted.
		WriteTimeout time.Duration
		// PollInterval is the maximal duration of a single readiness wait. Shutdown is
		// noticed at most this late.
		PollInterval time.Duration
		// MaxConns caps the number of simultaneously served clients. Zero derives the value
		// from the process descriptor limit, leaving ConnsMargin descriptors spare.
		MaxConns    int `test:"nullable"`
		ConnsMargin int
	}

	HTTP struct {
		// MaxLineSize bounds the request line as well as the whole headers section.
		MaxLineSize int
		// MaxBodySize bounds the declared Content-Length of POST requests.
		MaxBodySize int64
		// ServerName is sent in the Server header.
		ServerName string
		// DefaultDocument is appended to URIs ending with a slash.
		DefaultDocument string
	}

	FS struct {
		// Root is the document root. URIs are resolved relatively to it.
		Root string
		// DynamicMarker is the path segment distinguishing dynamic content from static files.
		DynamicMarker string
	}
)

// Config holds everything the server needs to be told. It's constructed once at
// startup and is never modified afterward.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	NET  NET
	HTTP HTTP
	FS   FS
}

// Default returns default config.
func Default() *Config {
	return &Config{
		NET: NET{
			Port:           8080,
			ReadBufferSize: 8 * 1024,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			PollInterval:   1 * time.Second,
			ConnsMargin:    5,
		},
		HTTP: HTTP{
			MaxLineSize:     8 * 1024,
			MaxBodySize:     64 * 1024 * 1024,
			ServerName:      "Liso/1.0",
			DefaultDocument: "index.html",
		},
		FS: FS{
			Root:          "www",
			DynamicMarker: "cgi-bin",
		},
	}
}

var (
	ErrNoRoot       = errors.New("document root is not set")
	ErrNoPort       = errors.New("listen port is not set")
	ErrBadLineSize  = errors.New("maximal line size must be positive")
	ErrBadBuffer    = errors.New("read buffer size must be positive")
	ErrBadPoll      = errors.New("poll interval must be positive")
	ErrBadTimeout   = errors.New("read and write timeouts must be positive")
	ErrBadMaxConns  = errors.New("connections limit can't be negative")
	ErrBadMargin    = errors.New("spare descriptors margin can't be negative")
	ErrNoDefaultDoc = errors.New("default document is not set")
)

// Validate reports the first found misconfiguration.
func (c *Config) Validate() error {
	switch {
	case len(c.FS.Root) == 0:
		return ErrNoRoot
	case c.NET.Port == 0:
		return ErrNoPort
	case c.HTTP.MaxLineSize <= 0:
		return ErrBadLineSize
	case c.NET.ReadBufferSize <= 0:
		return ErrBadBuffer
	case c.NET.PollInterval <= 0:
		return ErrBadPoll
	case c.NET.ReadTimeout <= 0 || c.NET.WriteTimeout <= 0:
		return ErrBadTimeout
	case c.NET.MaxConns < 0:
		return ErrBadMaxConns
	case c.NET.ConnsMargin < 0:
		return ErrBadMargin
	case len(c.HTTP.DefaultDocument) == 0:
		return ErrNoDefaultDoc
	}

	return nil
}
