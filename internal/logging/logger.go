// Package logging builds the structured logger shared by every command.
//
// Diagnostics go to stderr so they never mix with command output on
// stdout. The default level is warn: a normal invocation prints nothing
// but what the command itself writes.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// Config selects level, format and destination of log output.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // text (default) or json
	NoColor bool
	Output  io.Writer // defaults to os.Stderr
}

// Logger wraps slog.Logger so components can be handed a single concrete
// type and derive tagged children from it.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from cfg.
//
// Text output uses tint for compact, colored lines suited to a terminal;
// json output uses the stdlib JSON handler for piping into other tools.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(output, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    cfg.NoColor,
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel converts a level name to slog.Level. Unknown names map to warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// With returns a child Logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a child logger tagged with component=name.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// WithRun tags the logger with a short id unique to this process run.
func (l *Logger) WithRun() *Logger {
	return l.With("run", uuid.NewString()[:8])
}

// Discard returns a Logger that drops everything. Used where no logger
// was supplied, mostly in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}
