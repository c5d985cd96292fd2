package config

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.Config{
	EscapeHTML:            true,
	SortMapKeys:           true,
	DisallowUnknownFields: true,
}.Froze()

// file mirrors Config for JSON. Absent fields keep their defaults.
type file struct {
	NET struct {
		Addr           *string `json:"addr"`
		Port           *uint16 `json:"port"`
		ReadBufferSize *int    `json:"read_buffer_size"`
		ReadTimeout    *string `json:"read_timeout"`
		WriteTimeout   *string `json:"write_timeout"`
		PollInterval   *string `json:"poll_interval"`
		MaxConns       *int    `json:"max_conns"`
		ConnsMargin    *int    `json:"conns_margin"`
	} `json:"net"`
	HTTP struct {
		MaxLineSize     *int    `json:"max_line_size"`
		MaxBodySize     *int64  `json:"max_body_size"`
		ServerName      *string `json:"server_name"`
		DefaultDocument *string `json:"default_document"`
	} `json:"http"`
	FS struct {
		Root          *string `json:"root"`
		DynamicMarker *string `json:"dynamic_marker"`
	} `json:"fs"`
}

// Load reads the JSON config file, applying it on top of defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse applies the JSON document on top of defaults.
func Parse(data []byte) (*Config, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	set(&cfg.NET.Addr, f.NET.Addr)
	set(&cfg.NET.Port, f.NET.Port)
	set(&cfg.NET.ReadBufferSize, f.NET.ReadBufferSize)
	set(&cfg.NET.MaxConns, f.NET.MaxConns)
	set(&cfg.NET.ConnsMargin, f.NET.ConnsMargin)
	set(&cfg.HTTP.MaxLineSize, f.HTTP.MaxLineSize)
	set(&cfg.HTTP.MaxBodySize, f.HTTP.MaxBodySize)
	set(&cfg.HTTP.ServerName, f.HTTP.ServerName)
	set(&cfg.HTTP.DefaultDocument, f.HTTP.DefaultDocument)
	set(&cfg.FS.Root, f.FS.Root)
	set(&cfg.FS.DynamicMarker, f.FS.DynamicMarker)

	for _, d := range []struct {
		name string
		dst  *time.Duration
		src  *string
	}{
		{"net.read_timeout", &cfg.NET.ReadTimeout, f.NET.ReadTimeout},
		{"net.write_timeout", &cfg.NET.WriteTimeout, f.NET.WriteTimeout},
		{"net.poll_interval", &cfg.NET.PollInterval, f.NET.PollInterval},
	} {
		if d.src == nil {
			continue
		}

		value, err := time.ParseDuration(*d.src)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", d.name, err)
		}

		*d.dst = value
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
