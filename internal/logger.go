package internal

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the application logger. Development environments get
// human-readable text output, everything else emits JSON for log shippers.
// Unrecognized level names fall back to info.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if env == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
