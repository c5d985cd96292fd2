package liso

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"

	"github.com/indigo-web/liso/config"
	httpserver "github.com/indigo-web/liso/internal/server/http"
	"github.com/indigo-web/liso/internal/server/tcp"
	"github.com/indigo-web/liso/internal/timer"
	"github.com/indigo-web/liso/transport"
)

type hooks struct {
	OnStart, OnStop func()
}

// App is a static files server. Everything is served by a single goroutine, the one
// calling Serve.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	colored bool
	hooks   hooks
}

// New returns a new App instance. If logger is nil, nothing is logged.
func New(cfg *config.Config, logger *log.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Colored enables color-coding of the access log. Makes sense only if the log is
// written into a terminal.
func (a *App) Colored(flag bool) *App {
	a.colored = flag
	return a
}

// NotifyOnStart calls the callback at the moment the listener is bound and the
// server is about to enter the serving loop.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback after the server stopped. At that moment no
// connections are open anymore.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Addr returns the address the app binds to.
func (a *App) Addr() string {
	return net.JoinHostPort(a.cfg.NET.Addr, strconv.Itoa(int(a.cfg.NET.Port)))
}

// Serve binds the configured address and serves until ctx is done. Only failures
// are returned; a cancelled ctx results in nil.
func (a *App) Serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("liso: bad config: %w", err)
	}

	listener, err := transport.Bind(a.Addr())
	if err != nil {
		return fmt.Errorf("liso: listen: %w", err)
	}

	return a.ServeListener(ctx, listener)
}

// ServeListener is like Serve, but uses the already bound listener. The listener
// is closed on return.
func (a *App) ServeListener(ctx context.Context, listener *transport.Listener) error {
	capacity, err := tcp.Capacity(a.cfg.NET)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("liso: %w", err)
	}

	clock := timer.New(nil)
	httpServer := httpserver.NewServer(a.cfg, clock, a.logger, a.colored)
	server := tcp.NewServer(
		listener,
		tcp.NewPool(listener.FD(), capacity),
		clock,
		a.cfg.NET.PollInterval,
		func(conn net.Conn) tcp.Session {
			return httpServer.Attach(conn)
		},
		httpServer.Reject,
		a.logger,
	)

	a.logf("serving %s on %s, up to %d connections", a.cfg.FS.Root, listener.Addr(), capacity)
	callIfNotNil(a.hooks.OnStart)
	err = server.Run(ctx)
	callIfNotNil(a.hooks.OnStop)

	return err
}

func (a *App) logf(format string, v ...any) {
	if a.logger != nil {
		a.logger.Printf(format, v...)
	}
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
