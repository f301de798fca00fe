package lib

import (
	"fmt"
	"log"
	"os"
	"time"
)

// LogLevel defines the severity of log messages
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Logger provides structured logging for the application.
// Context is passed explicitly as key/value fields on each call; there is
// no ambient mutable logging state.
type Logger struct {
	level  LogLevel
	logger *log.Logger
}

// NewLogger creates a new logger instance
func NewLogger(level LogLevel) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...interface{}) {
	if l.level <= LogLevelDebug {
		l.log("DEBUG", message, fields...)
	}
}

// Info logs an informational message
func (l *Logger) Info(message string, fields ...interface{}) {
	if l.level <= LogLevelInfo {
		l.log("INFO", message, fields...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...interface{}) {
	if l.level <= LogLevelWarn {
		l.log("WARN", message, fields...)
	}
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...interface{}) {
	if l.level <= LogLevelError {
		l.log("ERROR", message, fields...)
	}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// log formats and writes a log message with optional fields
func (l *Logger) log(level string, message string, fields ...interface{}) {
	var fieldsStr string
	if len(fields) > 0 {
		fieldsStr = fmt.Sprintf(" | %v", fields)
	}
	l.logger.Printf("[%s] %s%s", level, message, fieldsStr)
}

// ParseLogLevel converts a string to LogLevel
func ParseLogLevel(levelStr string) LogLevel {
	switch levelStr {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogRunCreated logs pipeline run creation
func LogRunCreated(logger *Logger, runID string, inputSource string) {
	logger.Info(
		"Run created",
		"run_id", runID,
		"input_source", inputSource,
	)
}

// LogRunCompleted logs successful run completion
func LogRunCompleted(logger *Logger, runID string, accepted int64, rejected int64, duration time.Duration) {
	logger.Info(
		"Run completed",
		"run_id", runID,
		"accepted", accepted,
		"rejected", rejected,
		"duration", duration,
	)
}

// LogRunFailed logs a failed run with its fatal cause
func LogRunFailed(logger *Logger, runID string, err error) {
	logger.Error(
		"Run failed",
		"run_id", runID,
		"category", CategoryOf(err),
		"error", err,
	)
}

// LogBatchLoaded logs a committed batch
func LogBatchLoaded(logger *Logger, runID string, batch int, loaded int, rejected int, rejectionPct float64) {
	logger.Info(
		"Batch loaded",
		"run_id", runID,
		"batch", batch,
		"loaded", loaded,
		"rejected", rejected,
		"rejection_pct", fmt.Sprintf("%.2f", rejectionPct),
	)
}

// LogRetry logs retry attempts
func LogRetry(logger *Logger, operation string, attempt int, maxAttempts int, err error) {
	logger.Warn(
		fmt.Sprintf("Retry attempt %d/%d for: %s", attempt+1, maxAttempts, operation),
		"error", err,
	)
}

// LogOperation logs the start and completion of an operation
func LogOperation(logger *Logger, operation string, fn func() error) error {
	logger.Info(fmt.Sprintf("Starting: %s", operation))
	start := time.Now()

	err := fn()

	duration := time.Since(start)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed: %s", operation), "duration", duration, "error", err)
		return err
	}

	logger.Info(fmt.Sprintf("Completed: %s", operation), "duration", duration)
	return nil
}
