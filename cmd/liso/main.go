package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/indigo-web/liso"
	"github.com/indigo-web/liso/config"
)

type options struct {
	configPath string
	logPath    string
	port       uint
	root       string
	marker     string
}

func parseFlags(args []string) (options, *flag.FlagSet, error) {
	var opts options
	defaults := config.Default()

	fs := flag.NewFlagSet("liso", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a JSON config file")
	fs.StringVar(&opts.logPath, "log", "", "file to append the log to (stdout if not set)")
	fs.UintVar(&opts.port, "port", uint(defaults.NET.Port), "HTTP port to listen on")
	fs.StringVar(&opts.root, "root", defaults.FS.Root, "document root")
	fs.StringVar(&opts.marker, "cgi", defaults.FS.DynamicMarker, "path segment marking dynamic content")

	return opts, fs, fs.Parse(args)
}

// loadConfig reads the config file, if any. Explicitly set flags take precedence
// over it.
func loadConfig(opts options, fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if len(opts.configPath) > 0 {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			if opts.port > 0xffff {
				err = fmt.Errorf("port %d is out of range", opts.port)
			}

			cfg.NET.Port = uint16(opts.port)
		case "root":
			cfg.FS.Root = opts.root
		case "cgi":
			cfg.FS.DynamicMarker = opts.marker
		}
	})

	if err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func openLog(path string) (io.Writer, func(), error) {
	if len(path) == 0 {
		return os.Stdout, func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	return file, func() { _ = file.Close() }, nil
}

func run(args []string) error {
	opts, fs, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts, fs)
	if err != nil {
		return err
	}

	out, closeLog, err := openLog(opts.logPath)
	if err != nil {
		return err
	}

	defer closeLog()
	logger := log.New(out, "", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	go func() {
		for range hup {
			logger.Print("got SIGHUP, nothing to reload")
		}
	}()

	app := liso.New(cfg, logger).
		Colored(len(opts.logPath) == 0 && !color.NoColor).
		NotifyOnStart(func() {
			logger.Print("ready to accept connections")
		}).
		NotifyOnStop(func() {
			logger.Print("stopped")
		})

	return app.Serve(ctx)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}

		log.Printf("liso: %s", err)
		os.Exit(1)
	}
}
