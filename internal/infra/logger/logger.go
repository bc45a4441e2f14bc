package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"concierge/internal/infra/config"
)

// New builds the application logger from config. The second return value
// releases the log file when output points at one; for stdout and stderr it
// is a no-op.
func New(cfg config.LoggerConfig) (*slog.Logger, func() error, error) {
	sink, closeSink, err := newSink(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output: %w", err)
	}

	opts := &slog.HandlerOptions{Level: levelFrom(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(sink, opts)
	} else {
		handler = slog.NewTextHandler(sink, opts)
	}

	return slog.New(handler), closeSink, nil
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// levelFrom maps a config level string to slog.Level, defaulting to info.
func levelFrom(s string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(s)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// newSink resolves the output target. Anything other than stdout or stderr
// is treated as a file path and opened append-only, owner-readable.
func newSink(target string) (io.Writer, func() error, error) {
	nop := func() error { return nil }

	switch strings.ToLower(target) {
	case "stdout":
		return os.Stdout, nop, nil
	case "stderr", "":
		return os.Stderr, nop, nil
	default:
		f, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
}
