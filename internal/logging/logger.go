// Package logging builds the slog loggers used across reci.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reci/internal/config"
)

// Options describes logger construction parameters. Path "stdout" and
// "stderr" name the process streams; anything else is a file opened for
// append.
type Options struct {
	Level  string
	Format string
	Path   string
}

// New constructs a logger and returns a close func for the underlying file.
func New(opts Options) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }

	level, off := parseLevel(opts.Level)
	if off {
		return slog.New(slog.DiscardHandler), noop, nil
	}

	w, closer, err := openWriter(opts.Path)
	if err != nil {
		return nil, noop, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	case "console", "":
		handler = slog.NewTextHandler(w, handlerOpts)
	default:
		_ = closer()
		return nil, noop, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), closer, nil
}

// NewFromConfig logs to the state directory. The terminal UI owns stdout, so
// file output is the only sink for interactive runs.
func NewFromConfig(cfg *config.Config, levelOverride string) (*slog.Logger, func() error, error) {
	level := cfg.Logging.Level
	if strings.TrimSpace(levelOverride) != "" {
		level = levelOverride
	}
	if _, off := parseLevel(level); !off {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, func() error { return nil }, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	return New(Options{Level: level, Format: cfg.Logging.Format, Path: cfg.LogPath()})
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off", "none":
		return 0, true
	case "debug":
		return slog.LevelDebug, false
	case "warn":
		return slog.LevelWarn, false
	case "error":
		return slog.LevelError, false
	default:
		return slog.LevelInfo, false
	}
}

func openWriter(path string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch strings.TrimSpace(path) {
	case "", "stderr":
		return os.Stderr, noop, nil
	case "stdout":
		return os.Stdout, noop, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, noop, fmt.Errorf("ensure log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, noop, fmt.Errorf("open log file %q: %w", path, err)
	}
	return f, f.Close, nil
}
