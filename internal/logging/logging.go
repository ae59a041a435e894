// Package logging holds the process-wide slog logger.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	current = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Default returns the logger installed with SetDefault. Before any call to
// SetDefault it discards everything, so library code never writes to stderr
// unless the binary asked for it.
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func SetDefault(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, goerr.New("unknown log level", goerr.V("level", s))
	}
}

// New builds a logger writing to w. Console output goes through clog, json
// through the standard JSON handler.
func New(w io.Writer, level slog.Level, format string, color bool) (*slog.Logger, error) {
	switch format {
	case "", FormatConsole:
		return slog.New(clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithColor(color),
		)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, goerr.New("unknown log format", goerr.V("format", format))
	}
}

// ErrorAttrs expands a goerr error into log attributes: the message plus
// every context value attached along the wrap chain.
func ErrorAttrs(err error) []any {
	attrs := []any{"error", err.Error()}
	var ge *goerr.Error
	if errors.As(err, &ge) {
		if values := ge.Values(); len(values) > 0 {
			attrs = append(attrs, "values", values)
		}
	}
	return attrs
}
