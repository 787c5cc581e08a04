// internal/config/logging.go
package config

import (
	"io"
	"log/slog"
)

// NewLogger builds the application logger from settings. Output goes to w,
// normally stderr so stdout stays machine-readable.
func (s *Settings) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if s.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if s.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("app", AppName)
}
