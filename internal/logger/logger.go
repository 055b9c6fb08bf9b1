// Package logger provides structured logging setup for schoolhub.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"schoolhub/internal/config"
)

// New creates a *slog.Logger from the given logging config.
// Output goes to stdout with a "service" attribute on every record.
func New(cfg *config.LoggingConfig) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	if cfg == nil {
		cfg = config.DefaultConfig().Logging
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", cfg.Service)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
