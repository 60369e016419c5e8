package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Dir        string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console adds colored output on ConsoleWriter. The TUI leaves it
	// off so log lines never land on the alternate screen.
	Console       bool
	ConsoleWriter io.Writer
	Level         slog.Level
}

// DefaultConfig returns the defaults used when only a directory is known.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:           dir,
		File:          "workpad.log",
		MaxSizeMB:     10,
		MaxBackups:    3,
		MaxAgeDays:    28,
		ConsoleWriter: os.Stderr,
		Level:         slog.LevelInfo,
	}
}

// ParseLevel maps a config string to a slog level. Unknown values are
// treated as info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// fanout sends each record to every handler that accepts its level.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: handlers}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &fanout{handlers: handlers}
}

// New creates a logger that writes JSON to a rolling file and, when
// Console is set, colored text to the console writer. The returned Closer
// releases the file.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	if cfg.File == "" {
		cfg.File = "workpad.log"
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %s: %w", cfg.Dir, err)
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, cfg.File),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		LocalTime:  true,
	}

	handlers := []slog.Handler{
		slog.NewJSONHandler(lj, &slog.HandlerOptions{Level: cfg.Level}),
	}
	if cfg.Console {
		w := cfg.ConsoleWriter
		if w == nil {
			w = os.Stderr
		}
		handlers = append(handlers, tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: "15:04:05",
		}))
	}

	return slog.New(&fanout{handlers: handlers}), lj, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
