// Package logging configures zerolog for the connector.
//
// Logs are structured JSON on stderr by default. Stdout is reserved for the
// record stream, so nothing in this module logs there.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := ParseLevel(string(cfg.Level))
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to zerolog.Level.
// Unknown names select info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Redact masks every occurrence of the given secrets in s.
// Empty secrets are ignored.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, "****")
	}
	return s
}

// Log Level Guidelines:
//
// Debug: per-request detail
//   - Request method, host and path (never headers)
//   - Page number and shortened cursor
//   - "Query in progress" polls
//
// Info: run milestones
//   - Cursor acquired / empty result
//   - Sync finished with page and record totals
//   - Check succeeded
//
// Warn: recoverable or suspicious conditions
//   - Non-2xx responses before they are returned as errors
//   - Unknown region code (default origin used)
//
// Error: failures that end an operation
//   - Transport failures
//   - Rejected queries, malformed responses, page cap reached
//
// Context Fields:
//   - component: emitting package
//   - run_id: identifier of one check or read invocation
//   - event_name, start_date, end_date, region: query parameters
//   - page, records, total_records: pagination progress
//   - status, error_class: HTTP outcome
//
// The passcode is never a field. Free text that may echo it passes through
// Redact first.
