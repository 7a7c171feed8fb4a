// Package logger builds the structured slog loggers used by the readaloud service.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// LogFormat defines how log records are formatted
type LogFormat int

// Log format constants
const (
	TEXT LogFormat = iota
	JSON
)

// Disabled is a level above every level slog emits.
const Disabled = slog.Level(100)

// Config holds configuration options for the logger
type Config struct {
	Level       slog.Level
	Format      LogFormat
	Output      io.Writer
	AddSource   bool
	DefaultTags map[string]interface{}
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:       slog.LevelInfo,
		Format:      TEXT,
		Output:      os.Stderr,
		DefaultTags: map[string]interface{}{"service": "readaloud"},
	}
}

// New creates a new logger with the given configuration
func New(config *Config) *slog.Logger {
	if config == nil {
		config = DefaultConfig()
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: config.Level, AddSource: config.AddSource}

	var handler slog.Handler
	if config.Format == JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	// sorted so records are stable across runs
	keys := make([]string, 0, len(config.DefaultTags))
	for k := range config.DefaultTags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		attrs = append(attrs, k, config.DefaultTags[k])
	}

	return slog.New(handler).With(attrs...)
}

// FromSettings creates a logger from the level and format names used in the
// configuration file.
func FromSettings(level, format string, out io.Writer) *slog.Logger {
	config := DefaultConfig()
	config.Level = ParseLevel(level)
	config.Format = ParseFormat(format)
	if out != nil {
		config.Output = out
	}
	return New(config)
}

// WithContext returns a logger tagged with a dotted component path.
func WithContext(logger *slog.Logger, contexts ...string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", strings.Join(contexts, "."))
}

// ParseLevel converts a string level to a slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "DISABLED", "OFF":
		return Disabled
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a string format to a LogFormat
func ParseFormat(format string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return JSON
	}
	return TEXT
}
