// Package logging provides leveled, structured logging for askdb. Pipeline
// stages attach fields (turn id, database id, attempt) so a single turn can
// be traced across linking, generation, validation and execution.
package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Malumbo21/askdb/internal/config"
)

// Level represents the severity of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

const (
	logDirPerm  = 0755
	logFilePerm = 0644
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Entry represents a single log record.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Logger writes leveled log entries in text or JSON format.
type Logger struct {
	level  Level
	format string
	output io.Writer
	file   *os.File
	mu     sync.Mutex
	fields map[string]any
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// nopLogger backs the package-level helpers before Initialize or
// SetupFallback runs, so chained calls on the uninitialized state are safe.
var nopLogger = &Logger{
	level:  ErrorLevel + 1,
	format: "text",
	output: io.Discard,
	fields: make(map[string]any),
}

// Initialize sets up the global logger from configuration. Only the first
// call takes effect.
func Initialize(cfg config.LoggingConfig) error {
	var err error

	loggerOnce.Do(func() {
		globalLogger, err = New(cfg)
	})

	return err
}

// New creates a logger from configuration.
func New(cfg config.LoggingConfig) (*Logger, error) {
	logger := &Logger{
		level:  parseLevel(cfg.Level),
		format: cfg.Format,
		fields: make(map[string]any),
	}

	switch strings.ToLower(cfg.Output) {
	case "stdout":
		logger.output = os.Stdout
	case "stderr":
		logger.output = os.Stderr
	case "file":
		if cfg.File == "" {
			return nil, errors.New("log file path is required when output is 'file'")
		}

		if err := os.MkdirAll(filepath.Dir(cfg.File), logDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		logger.file = file
		logger.output = file
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	return logger, nil
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// WithField returns a logger with an additional context field.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a logger with additional context fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := &Logger{
		level:  l.level,
		format: l.format,
		output: l.output,
		file:   l.file,
		fields: make(map[string]any, len(l.fields)+len(fields)),
	}

	for k, v := range l.fields {
		child.fields[k] = v
	}

	for k, v := range fields {
		child.fields[k] = v
	}

	return child
}

// WithError returns a logger carrying the error as a field.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	return l.WithField("error", err.Error())
}

func (l *Logger) log(level Level, message string, err error) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Fields:    l.fields,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	var output string

	if l.format == "json" {
		data, _ := json.Marshal(entry)
		output = string(data)
	} else {
		output = formatText(entry)
	}

	_, _ = fmt.Fprintln(l.output, output)
}

func formatText(entry Entry) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", entry.Timestamp, entry.Level))
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		var fieldParts []string
		for k, v := range entry.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, v))
		}

		parts = append(parts, fmt.Sprintf("{%s}", strings.Join(fieldParts, " ")))
	}

	if entry.Error != "" {
		parts = append(parts, "error="+entry.Error)
	}

	return strings.Join(parts, " ")
}

// Debug logs a debug message.
func (l *Logger) Debug(message string) {
	l.log(DebugLevel, message, nil)
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(DebugLevel, fmt.Sprintf(format, args...), nil)
}

// Info logs an info message.
func (l *Logger) Info(message string) {
	l.log(InfoLevel, message, nil)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...any) {
	l.log(InfoLevel, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string) {
	l.log(WarnLevel, message, nil)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...any) {
	l.log(WarnLevel, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message.
func (l *Logger) Error(message string) {
	l.log(ErrorLevel, message, nil)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.log(ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// ErrorWithErr logs an error message with an associated error.
func (l *Logger) ErrorWithErr(message string, err error) {
	l.log(ErrorLevel, message, err)
}

// Close releases any file handle owned by the logger.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}

	return nil
}

// Package-level functions operate on the global logger and are no-ops
// before Initialize or SetupFallback.

func Debug(message string) {
	if globalLogger != nil {
		globalLogger.Debug(message)
	}
}

func Debugf(format string, args ...any) {
	if globalLogger != nil {
		globalLogger.Debugf(format, args...)
	}
}

func Info(message string) {
	if globalLogger != nil {
		globalLogger.Info(message)
	}
}

func Infof(format string, args ...any) {
	if globalLogger != nil {
		globalLogger.Infof(format, args...)
	}
}

func Warn(message string) {
	if globalLogger != nil {
		globalLogger.Warn(message)
	}
}

func Warnf(format string, args ...any) {
	if globalLogger != nil {
		globalLogger.Warnf(format, args...)
	}
}

func Error(message string) {
	if globalLogger != nil {
		globalLogger.Error(message)
	}
}

func Errorf(format string, args ...any) {
	if globalLogger != nil {
		globalLogger.Errorf(format, args...)
	}
}

func ErrorWithErr(message string, err error) {
	if globalLogger != nil {
		globalLogger.ErrorWithErr(message, err)
	}
}

// WithField adds a field to the global logger context. Before
// initialization the returned logger discards everything.
func WithField(key string, value any) *Logger {
	return GetLogger().WithField(key, value)
}

// WithFields adds multiple fields to the global logger context. Before
// initialization the returned logger discards everything.
func WithFields(fields map[string]any) *Logger {
	return GetLogger().WithFields(fields)
}

// GetLogger returns the global logger instance, or a discarding logger
// before initialization.
func GetLogger() *Logger {
	if globalLogger != nil {
		return globalLogger
	}

	return nopLogger
}

// SetupFallback installs a plain stderr logger for cases where
// configuration loading itself fails.
func SetupFallback() {
	globalLogger = &Logger{
		level:  InfoLevel,
		format: "text",
		output: os.Stderr,
		fields: make(map[string]any),
	}
}
