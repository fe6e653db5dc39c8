// Package logging provides leveled key=value console output for
// monitoring rate-limited request execution in real time.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	requestID string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		requestID: l.requestID,
	}
}

// WithRequestID returns a new logger that tags every line with the
// given request ID.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		requestID: requestID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.requestID != "" {
		fieldStr += " request_id=" + l.requestID
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// RequestComplete logs the outcome of a provider request. A failed
// request has no model or usage to report, so those fields are omitted.
func (l *Logger) RequestComplete(model string, duration time.Duration, inTokens, outTokens int, err error) {
	fields := map[string]interface{}{
		"duration": duration.String(),
	}
	if model != "" {
		fields["model"] = model
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("request_error", fields)
		return
	}
	fields["input_tokens"] = inTokens
	fields["output_tokens"] = outTokens
	l.Info("request_complete", fields)
}

// RetryAttempt logs a retry of a failed request.
func (l *Logger) RetryAttempt(attempt, maxRetries int, delay time.Duration, err error) {
	l.Warn("retry_attempt", map[string]interface{}{
		"attempt":     attempt,
		"max_retries": maxRetries,
		"delay":       delay.String(),
		"error":       err.Error(),
	})
}

// RateLimitWait logs a pause imposed by the rate limiter.
func (l *Logger) RateLimitWait(pending int, wait time.Duration) {
	l.Debug("rate_limit_wait", map[string]interface{}{
		"pending": pending,
		"wait":    wait.String(),
	})
}

// BatchComplete logs the outcome of a batch run.
func (l *Logger) BatchComplete(total, succeeded, failed int, duration time.Duration) {
	l.Info("batch_complete", map[string]interface{}{
		"total":     total,
		"succeeded": succeeded,
		"failed":    failed,
		"duration":  duration.String(),
	})
}
