// Package logging holds the process-wide structured logger. Every package
// logs through L(); the CLI installs the configured logger with Set at
// startup.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu      sync.RWMutex
	current = defaultLogger()
)

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// L returns the process-wide logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the process-wide logger. A nil logger is ignored.
func Set(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// Reset restores the default logger, which writes warnings and errors as
// text to stderr.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaultLogger()
}

// Options configures New.
type Options struct {
	Level  string
	Format string

	// Writer receives console output. Defaults to os.Stderr.
	Writer io.Writer

	// File, when set, additionally receives every record in the same
	// format. File output is always at least at info level.
	File io.Writer
}

// ErrInvalidLevel is returned for an unknown level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel maps debug, info, warn and error to slog levels. The empty
// string means info.
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
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	console, err := newHandler(opts.Format, w, level)
	if err != nil {
		return nil, err
	}
	if opts.File == nil {
		return slog.New(console), nil
	}
	file, err := newHandler(opts.Format, opts.File, min(level, slog.LevelInfo))
	if err != nil {
		return nil, err
	}
	return slog.New(fanout{console, file}), nil
}

func newHandler(format string, w io.Writer, level slog.Level) (slog.Handler, error) {
	hopts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.NewTextHandler(w, hopts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, hopts), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// fanout passes each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
