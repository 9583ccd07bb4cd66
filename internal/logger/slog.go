package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

type SlogConfig struct {
	Level     slog.Leveler
	JSON      bool
	AddSource bool
	Writer    io.Writer
}

type SlogAdapter struct {
	l *slog.Logger
}

func NewSlogAdapter(cfg SlogConfig) *SlogAdapter {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	level := cfg.Level
	if level == nil {
		level = slog.LevelInfo
	}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  cfg.AddSource,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}
	return &SlogAdapter{l: slog.New(h)}
}

// ParseLevel maps "debug", "warn" and "error" to slog levels, anything else to info.
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

func attrs(fields Fields) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func (a *SlogAdapter) Info(msg string, fields Fields)  { a.l.Info(msg, attrs(fields)...) }
func (a *SlogAdapter) Warn(msg string, fields Fields)  { a.l.Warn(msg, attrs(fields)...) }
func (a *SlogAdapter) Debug(msg string, fields Fields) { a.l.Debug(msg, attrs(fields)...) }

func (a *SlogAdapter) Error(msg string, err error, fields Fields) {
	args := attrs(fields)
	if err != nil {
		args = append(args, tint.Err(err))
	}
	a.l.Error(msg, args...)
}

func (a *SlogAdapter) WithFields(fields Fields) Logger {
	return &SlogAdapter{l: a.l.With(attrs(fields)...)}
}
