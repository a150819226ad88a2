// Package log configures the process-wide slog logger.
package log

import (
	"log/slog"
	"os"
)

// Config holds logger configuration
type Config struct {
	Level   slog.Level
	Handler slog.Handler
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo}
}

// New creates a new logger with the given configuration
func New(config Config) *slog.Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}
	return slog.New(handler)
}

// Setup installs a logger built from config as the process default.
func Setup(config Config) *slog.Logger {
	logger := New(config)
	slog.SetDefault(logger)
	return logger
}
