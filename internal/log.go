package internal

import (
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel maps ERROR/WARN/INFO/DEBUG/TRACE to a level, defaulting to INFO
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	default:
		return LogLevelInfo
	}
}

// Logger provides leveled logging
type Logger struct {
	level LogLevel
	out   *log.Logger
}

// NewLogger creates a new logger with the specified level writing to stderr
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(level, os.Stderr)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(level LogLevel, w io.Writer) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// NewFileLogger writes to a size-rotated file as well as stderr
func NewFileLogger(level LogLevel, path string, maxSizeMB int) *Logger {
	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}
	return NewLoggerTo(level, io.MultiWriter(os.Stderr, rotating))
}

// NewDefaultLogger creates a logger based on LOG_LEVEL and LOG_FILE environment variables
func NewDefaultLogger() *Logger {
	level := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if path := os.Getenv("LOG_FILE"); path != "" {
		return NewFileLogger(level, path, 10)
	}
	return NewLogger(level)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		l.out.Printf("[ERROR] "+format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogLevelWarn {
		l.out.Printf("[WARN] "+format, args...)
	}
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.out.Printf("[INFO] "+format, args...)
	}
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.out.Printf("[DEBUG] "+format, args...)
	}
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogLevelTrace {
		l.out.Printf("[TRACE] "+format, args...)
	}
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Writer exposes the underlying sink, e.g. for HTTP access logs
func (l *Logger) Writer() io.Writer {
	return l.out.Writer()
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
