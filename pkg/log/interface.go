// Package log provides structured logging for the wine-quality walkthrough.
//
// It defines a minimal, slog-compatible logging interface so library packages
// never depend on a concrete logging backend. The default provider writes
// through Go's log/slog; tests swap in a capturing provider.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("ensemble.forest").With(
//	    log.ModelNameKey, "RandomForestClassifier",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 959,
//	    log.FeaturesKey, 11,
//	)

package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// It provides the core logging methods with structured field support and
// method chaining through With, so contextual loggers can carry pre-populated
// fields (model name, run ID) through a whole pipeline stage.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	// Used for detailed diagnostics such as per-fold scores.
	//
	// Example:
	//
	//	logger.Debug("Fold evaluated",
	//	    "fold", 3,
	//	    log.AUCKey, 0.871,
	//	)
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	// Used for stage progress in the walkthrough.
	//
	// Example:
	//
	//	logger.Info("Model training completed",
	//	    log.DurationMsKey, 5432,
	//	    log.AccuracyKey, 0.95,
	//	)
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	// Used for recoverable data conditions such as class imbalance.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// When an error value is passed via log.ErrAttr, the handler attaches
	// its stack trace as a separate attribute.
	//
	// Example:
	//
	//	logger.Error("Model training failed",
	//	    log.ErrAttr(err),
	//	    log.OperationKey, log.OperationFit,
	//	)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated in all
	// subsequent log messages.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to avoid building expensive attributes that would be dropped.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
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

// LoggerProvider creates and configures loggers. It exists for dependency
// injection: production uses SlogProvider, tests use TestLoggerProvider.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers created by this provider.
	SetLevel(level Level)
}
