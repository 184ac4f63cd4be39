// cmd/clipguard/logger.go
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarning
	LogError
)

var logLevelStrings = map[LogLevel]string{
	LogDebug:   "DEBUG",
	LogInfo:    "INFO",
	LogWarning: "WARN",
	LogError:   "ERROR",
}

// ParseLogLevel maps a config string onto a LogLevel, defaulting to info.
func ParseLogLevel(raw string) LogLevel {
	switch raw {
	case "debug":
		return LogDebug
	case "warn", "warning":
		return LogWarning
	case "error":
		return LogError
	default:
		return LogInfo
	}
}

// AppLogger writes leveled log lines to a file and stdout.
type AppLogger struct {
	logger   *log.Logger
	file     *os.File
	level    LogLevel
	filename string
	maxSize  int64
	mutex    sync.Mutex
}

var (
	loggerInstance *AppLogger
	loggerOnce     sync.Once
)

// InitLogger installs the file-backed global logger. It replaces the
// stderr fallback if earlier startup code already logged through it.
func InitLogger(logPath string, level LogLevel) error {
	l, err := newAppLogger(logPath, level)
	if err != nil {
		return err
	}
	loggerInstance = l
	return nil
}

// Logger returns the global logger instance. A stderr-only fallback is
// installed when InitLogger was never called, so library-level code and
// tests can log without setup.
func Logger() *AppLogger {
	if loggerInstance == nil {
		loggerOnce.Do(func() {
			loggerInstance = &AppLogger{
				logger: log.New(os.Stderr, "", log.LstdFlags),
				level:  LogInfo,
			}
		})
	}
	return loggerInstance
}

func newAppLogger(logPath string, level LogLevel) (*AppLogger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	l := &AppLogger{
		logger:   log.New(io.MultiWriter(file, os.Stdout), "", log.LstdFlags),
		file:     file,
		level:    level,
		filename: logPath,
		maxSize:  50 * 1024 * 1024,
	}

	l.Info("Logger initialized")
	return l, nil
}

func (l *AppLogger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.rotateIfNeeded(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate log file: %v\n", err)
	}

	l.logger.Printf("[%s] %s", logLevelStrings[level], fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *AppLogger) Debug(format string, args ...interface{}) {
	l.log(LogDebug, format, args...)
}

// Info logs an info message
func (l *AppLogger) Info(format string, args ...interface{}) {
	l.log(LogInfo, format, args...)
}

// Warning logs a warning message
func (l *AppLogger) Warning(format string, args ...interface{}) {
	l.log(LogWarning, format, args...)
}

// Error logs an error message
func (l *AppLogger) Error(format string, args ...interface{}) {
	l.log(LogError, format, args...)
}

// Printf logs at info level, matching the stdlib logger signature.
func (l *AppLogger) Printf(format string, args ...interface{}) {
	l.log(LogInfo, format, args...)
}

// rotateIfNeeded renames the log file once it exceeds maxSize and
// reopens a fresh one. No-op for the stderr fallback logger.
func (l *AppLogger) rotateIfNeeded() error {
	if l.file == nil {
		return nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %v", err)
	}
	if info.Size() < l.maxSize {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %v", err)
	}

	rotatedPath := fmt.Sprintf("%s.%s", l.filename, time.Now().Format("20060102-150405"))
	if err := os.Rename(l.filename, rotatedPath); err != nil {
		return fmt.Errorf("failed to rename log file: %v", err)
	}

	file, err := os.OpenFile(l.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %v", err)
	}

	l.logger.SetOutput(io.MultiWriter(file, os.Stdout))
	l.file = file
	return nil
}

// Close closes the logger and underlying file
func (l *AppLogger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// RecoverFromPanic converts a panic in a goroutine into an error log
// entry so one runaway task cannot take the process down.
func RecoverFromPanic(component string) {
	if r := recover(); r != nil {
		Logger().Error("panic in %s: %v", component, r)
	}
}
