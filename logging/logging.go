// Package logging provides real-time console output for monitoring plankit
// components. The revision store is the durable record; this package only
// gives operators a live view of routing, agent lifecycle, and commits.
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

// WithRequestID returns a new logger scoped to one external request.
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
		fieldStr = " request=" + l.requestID + fieldStr
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

// --- Domain logging methods ---
// Called by orchestrator, executor, and engine for real-time visibility.

// RouteStart logs the start of request routing.
func (l *Logger) RouteStart(documentID, taskType string) {
	l.Info("route_start", map[string]interface{}{
		"document": documentID,
		"task":     taskType,
	})
}

// RouteDone logs the outcome of request routing.
func (l *Logger) RouteDone(documentID, agentID string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"document": documentID,
		"agent":    agentID,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("route_failed", fields)
	} else {
		l.Info("route_done", fields)
	}
}

// AgentLifecycle logs an agent status transition.
func (l *Logger) AgentLifecycle(agentID, documentID, status string, progress int) {
	l.Debug("agent_status", map[string]interface{}{
		"agent":    agentID,
		"document": documentID,
		"status":   status,
		"progress": progress,
	})
}

// ApplyCommitted logs a committed change set.
func (l *Logger) ApplyCommitted(documentID string, version int, ops int, duration time.Duration) {
	l.Info("apply_committed", map[string]interface{}{
		"document": documentID,
		"version":  version,
		"ops":      ops,
		"duration": duration.String(),
	})
}

// ApplyConflict logs an optimistic-concurrency retry.
func (l *Logger) ApplyConflict(documentID string, attempt int) {
	l.Debug("apply_conflict", map[string]interface{}{
		"document": documentID,
		"attempt":  attempt,
	})
}

// SinkDropped logs removal of a dead event sink.
func (l *Logger) SinkDropped(documentID, sink string, err error) {
	fields := map[string]interface{}{
		"document": documentID,
		"sink":     sink,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.Warn("sink_dropped", fields)
}

// ExternalCall logs an external service call result.
func (l *Logger) ExternalCall(service string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"service":  service,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("external_error", fields)
	} else {
		l.Debug("external_call", fields)
	}
}
