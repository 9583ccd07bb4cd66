package logger

import (
	"fmt"
	"strings"
)

type FluentOptions struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

type Options struct {
	AppName string
	Level   string
	// Format is "json" or anything else for tinted text.
	Format string
	Fluent FluentOptions
}

// Setup builds the process logger: stdout always, Fluent Bit when enabled.
// If Fluent Bit cannot be reached the stdout logger is returned with the error
// so the caller can decide whether that is fatal.
func Setup(o Options) (Logger, func() error, error) {
	stdout := NewSlogAdapter(SlogConfig{
		Level: ParseLevel(o.Level),
		JSON:  strings.EqualFold(o.Format, "json"),
	})
	base := stdout.WithFields(Fields{"service": o.AppName})
	noop := func() error { return nil }
	if !o.Fluent.Enabled {
		return base, noop, nil
	}

	client, err := DialFluent(o.Fluent.Host, o.Fluent.Port, o.AppName)
	if err != nil {
		return base, noop, fmt.Errorf("fluent bit: %w", err)
	}
	fa, err := NewFluentAdapter(client, ParseLevel(o.Fluent.Level))
	if err != nil {
		_ = client.Close()
		return base, noop, fmt.Errorf("fluent bit: %w", err)
	}
	return NewMulti(base, fa.WithFields(Fields{"service": o.AppName})), fa.Close, nil
}
