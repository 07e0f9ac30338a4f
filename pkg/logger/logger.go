// Package logger provides opinionated logging capabilities for the
// tutorstream system
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New creates a *slog.Logger configured via options.
//
// Defaults to slog's text handler at Info level on os.Stdout. WithPretty
// swaps in the charmbracelet/log handler for CLI output; WithJSON swaps in
// the JSON handler for structured logs. Pretty wins if both are set.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}

	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer
	if len(c.writers) == 1 {
		w = c.writers[0]
	} else {
		w = io.MultiWriter(c.writers...)
	}

	switch {
	case c.pretty:
		charmLevel := charmlog.InfoLevel
		if c.level == slog.LevelDebug {
			charmLevel = charmlog.DebugLevel
		}

		handler := charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel,
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
		return slog.New(handler)

	case c.json:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		}))

	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		}))
	}
}
