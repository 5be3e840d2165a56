// Package logging provides the structured JSON logger used across the
// server. Entries are written asynchronously through a buffered channel
// so logging never blocks a connection handler.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// LevelFromString converts a configuration string to a Level.
func LevelFromString(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Component names for structured logging.
const (
	ComponentMain        = "main"
	ComponentServer      = "server"
	ComponentDatabase    = "database"
	ComponentCache       = "cache"
	ComponentPersistence = "persistence"
	ComponentConfig      = "config"
	ComponentAuth        = "auth"
)

// Action names for structured logging.
const (
	ActionStart       = "start"
	ActionStop        = "stop"
	ActionConnect     = "connect"
	ActionDisconnect  = "disconnect"
	ActionRequest     = "request"
	ActionPersist     = "persist"
	ActionRestore     = "restore"
	ActionReconfigure = "reconfigure"
	ActionValidation  = "validation"
	ActionLogin       = "login"
)

type contextKey string

// CorrelationIDKey carries the per-connection correlation ID.
const CorrelationIDKey contextKey = "correlation_id"

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// NewCorrelationID generates a new correlation ID.
func NewCorrelationID() string {
	return uuid.New().String()
}

// GetCorrelationID retrieves the correlation ID from the context.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// Entry is one structured log record, serialized as a JSON line.
type Entry struct {
	Timestamp     time.Time      `json:"@timestamp"`
	Level         string         `json:"level"`
	Message       string         `json:"message"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Component     string         `json:"component,omitempty"`
	Action        string         `json:"action,omitempty"`
	Error         string         `json:"error,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// Config controls logger initialization.
type Config struct {
	Level         Level
	LogFile       string
	EnableConsole bool
	EnableFile    bool
	BufferSize    int
}

// Logger writes structured entries to its configured writers.
type Logger struct {
	level   Level
	writers []io.Writer
	mu      sync.RWMutex
	entries chan Entry
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewLogger creates a logger and starts its background writer.
func NewLogger(config Config) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = 256
	}

	logger := &Logger{
		level:   config.Level,
		entries: make(chan Entry, config.BufferSize),
		done:    make(chan struct{}),
	}

	if config.EnableConsole {
		logger.writers = append(logger.writers, os.Stdout)
	}
	if config.EnableFile && config.LogFile != "" {
		if file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			logger.writers = append(logger.writers, file)
		} else {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", config.LogFile, err)
		}
	}

	logger.wg.Add(1)
	go logger.process()

	return logger
}

func (l *Logger) process() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.entries:
			l.write(entry)
		case <-l.done:
			for {
				select {
				case entry := <-l.entries:
					l.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, writer := range l.writers {
		writer.Write(data)
		writer.Write([]byte("\n"))
	}
}

func (l *Logger) log(ctx context.Context, level Level, component, action, message string, fields map[string]any, err error) {
	if level < l.level {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Message:   message,
		Component: component,
		Action:    action,
		Fields:    fields,
	}
	if id := GetCorrelationID(ctx); id != "" {
		entry.CorrelationID = id
	}
	if err != nil {
		entry.Error = err.Error()
	}

	select {
	case l.entries <- entry:
	default:
		// channel full, write synchronously rather than drop
		l.write(entry)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(ctx context.Context, component, action, message string, fields ...map[string]any) {
	l.log(ctx, DEBUG, component, action, message, first(fields), nil)
}

// Info logs an info message.
func (l *Logger) Info(ctx context.Context, component, action, message string, fields ...map[string]any) {
	l.log(ctx, INFO, component, action, message, first(fields), nil)
}

// Warn logs a warning message.
func (l *Logger) Warn(ctx context.Context, component, action, message string, fields ...map[string]any) {
	l.log(ctx, WARN, component, action, message, first(fields), nil)
}

// Error logs an error message.
func (l *Logger) Error(ctx context.Context, component, action, message string, err error, fields ...map[string]any) {
	l.log(ctx, ERROR, component, action, message, first(fields), err)
}

// Fatal logs a fatal message. The caller decides whether to exit.
func (l *Logger) Fatal(ctx context.Context, component, action, message string, err error, fields ...map[string]any) {
	l.log(ctx, FATAL, component, action, message, first(fields), err)
}

func first(fields []map[string]any) map[string]any {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Close flushes pending entries and closes file writers.
func (l *Logger) Close() {
	close(l.done)
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.writers {
		if closer, ok := writer.(io.Closer); ok && writer != os.Stdout && writer != os.Stderr {
			closer.Close()
		}
	}
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// SetGlobalLogger sets the process-wide logger instance.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the process-wide logger instance, possibly nil.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Package-level helpers that use the global logger.

func Debug(ctx context.Context, component, action, message string, fields ...map[string]any) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.Debug(ctx, component, action, message, fields...)
	}
}

func Info(ctx context.Context, component, action, message string, fields ...map[string]any) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.Info(ctx, component, action, message, fields...)
	}
}

func Warn(ctx context.Context, component, action, message string, fields ...map[string]any) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.Warn(ctx, component, action, message, fields...)
	}
}

func Error(ctx context.Context, component, action, message string, err error, fields ...map[string]any) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.Error(ctx, component, action, message, err, fields...)
	}
}

func Fatal(ctx context.Context, component, action, message string, err error, fields ...map[string]any) {
	if logger := GetGlobalLogger(); logger != nil {
		logger.Fatal(ctx, component, action, message, err, fields...)
	}
}
