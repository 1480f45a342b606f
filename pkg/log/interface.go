// Package log provides the structured logging interface used across goeli5.
//
// The Logger interface is slog-compatible in shape (message plus key/value
// pairs) and backed by zerolog. Components obtain a named logger once and
// attach model and operation context with With:
//
//	logger := log.GetLoggerWithName("explain").With(
//	    log.ModelNameKey, "LGBMClassifier",
//	)
//	logger.Debug("dispatching explanation",
//	    log.OperationKey, log.OperationExplainWeights,
//	    log.FeaturesKey, 4,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface.
//
// Fields are alternating key/value pairs. Error values are rendered with
// their message, and an error passed to Error under the "error" key also
// contributes its stack trace when it carries one.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that deserve attention but do not fail the operation.
	Warn(msg string, fields ...any)

	// Error logs a failed operation.
	//
	// Example:
	//   logger.Error("explanation failed",
	//       "error", err,
	//       log.ModelNameKey, "LGBMRegressor",
	//   )
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values are compatible with slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level. Unknown names map to LevelInfo.
func ParseLevel(level string) Level {
	switch level {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "warning", "WARN":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerProvider creates loggers. It allows swapping the backend in tests.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers created by this provider.
	SetLevel(level Level)
}
