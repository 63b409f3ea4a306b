// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a textual log level to a slog.Level.
// Empty input maps to info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", level)
	}
}

// New returns a logger writing to w. JSON output is used when asJSON is set,
// logfmt-style text otherwise. Every record carries the module name and version.
func New(w io.Writer, module, version string, level slog.Level, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var h slog.Handler
	if asJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String("module", module),
		slog.String("version", version),
	)
}

// SetDefaultStructuredLogger installs a stderr logger as slog.Default.
// An unparsable level falls back to info and is reported once.
func SetDefaultStructuredLogger(module, version, level string, asJSON bool) {
	lvl, err := ParseLevel(level)
	logger := New(os.Stderr, module, version, lvl, asJSON)
	slog.SetDefault(logger)
	if err != nil {
		slog.Warn("invalid log level, using info", "level", level)
	}
}
