// Package logging wraps charmbracelet/log for the CLI and the driver.
// Findings are never logged; they go to the report writer. The logger
// carries operational messages only (config resolution, cache activity,
// worker errors) and writes to stderr.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

type (
	// Level is the textual log level accepted by --log-level.
	Level string

	// Logger is the structured logger used across the module.
	Logger interface {
		Debug(msg string, keyvals ...any)
		Info(msg string, keyvals ...any)
		Warn(msg string, keyvals ...any)
		Error(msg string, keyvals ...any)
		With(keyvals ...any) Logger
	}

	charmLogger struct {
		l *charmlog.Logger
	}
)

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	OffLevel   Level = "off"
)

// ParseLevel accepts debug|info|warn|warning|error|off; unknown values fall
// back to warn and report ok=false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "", "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	case "off", "none":
		return OffLevel, true
	}
	return WarnLevel, false
}

func (l Level) charm() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.WarnLevel
	}
}

type Config struct {
	Level      Level
	Output     io.Writer
	JSON       bool
	Timestamps bool
	TimeFormat string
}

func DefaultConfig() Config {
	return Config{
		Level:      WarnLevel,
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	}
}

// New builds a Logger from cfg. OffLevel discards everything.
func New(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Level == OffLevel {
		out = io.Discard
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "15:04:05"
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           cfg.Level.charm(),
		ReportTimestamp: cfg.Timestamps,
		TimeFormat:      cfg.TimeFormat,
		Prefix:          "scenecheck",
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	} else {
		l.SetFormatter(charmlog.TextFormatter)
	}
	return &charmLogger{l: l}
}

// Nop returns a logger that drops every message.
func Nop() Logger {
	return New(Config{Level: OffLevel})
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

type ctxKey struct{}

// WithLogger attaches a logger to ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the context's logger, or a discarding one.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	return Nop()
}
