package logger

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// FluentAdapter ships entries to Fluent Bit, tagged by level.
type FluentAdapter struct {
	client   *fluent.Fluent
	fields   Fields
	minLevel slog.Level
}

func NewFluentAdapter(client *fluent.Fluent, minLevel slog.Leveler) (*FluentAdapter, error) {
	if client == nil {
		return nil, errors.New("fluent client cannot be nil")
	}
	level := slog.LevelInfo
	if minLevel != nil {
		level = minLevel.Level()
	}
	return &FluentAdapter{client: client, fields: Fields{}, minLevel: level}, nil
}

// DialFluent connects to a Fluent Bit forward input.
func DialFluent(host string, port int, tagPrefix string) (*fluent.Fluent, error) {
	return fluent.New(fluent.Config{
		FluentHost: host,
		FluentPort: port,
		TagPrefix:  tagPrefix,
		Async:      true,
	})
}

func (a *FluentAdapter) post(level slog.Level, tag, msg string, fields Fields) {
	if level < a.minLevel {
		return
	}
	data := merge(a.fields, fields)
	data["level"] = tag
	data["message"] = msg
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	// dropping a log line must never fail the request
	_ = a.client.Post(tag, data)
}

func (a *FluentAdapter) Info(msg string, fields Fields)  { a.post(slog.LevelInfo, "info", msg, fields) }
func (a *FluentAdapter) Warn(msg string, fields Fields)  { a.post(slog.LevelWarn, "warn", msg, fields) }
func (a *FluentAdapter) Debug(msg string, fields Fields) { a.post(slog.LevelDebug, "debug", msg, fields) }

func (a *FluentAdapter) Error(msg string, err error, fields Fields) {
	if err != nil {
		fields = merge(fields, Fields{"error": err.Error()})
	}
	a.post(slog.LevelError, "error", msg, fields)
}

func (a *FluentAdapter) WithFields(fields Fields) Logger {
	return &FluentAdapter{client: a.client, fields: merge(a.fields, fields), minLevel: a.minLevel}
}

func (a *FluentAdapter) Close() error {
	return a.client.Close()
}
