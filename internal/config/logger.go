package config

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger: JSON at info in production, text at
// debug with source locations elsewhere. A non-empty level overrides the
// environment default.
func NewLogger(env, level string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		AddSource: env == "development",
	}

	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, withLevel(opts, level))
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, withLevel(opts, level))
	}

	return slog.New(handler)
}

func withLevel(opts *slog.HandlerOptions, level string) *slog.HandlerOptions {
	if level == "" {
		return opts
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err == nil {
		opts.Level = l
	}
	return opts
}
