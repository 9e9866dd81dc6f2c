package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// logOutput is stderr; stdout carries rendered reports.
var logOutput io.Writer = os.Stderr

// NewLogger returns a slog.Logger writing to stderr at the requested level and format.
func NewLogger(level string, json bool) *slog.Logger {
	return NewLoggerTo(logOutput, level, json)
}

func NewLoggerTo(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// DiscardLogger is used by tests and by callers that do not want engine output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
