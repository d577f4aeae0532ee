package log

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// ParseLevel maps a LOG_LEVEL value to a LogLevel, falling back to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

type Logger struct {
	level  LogLevel
	logger *log.Logger
}

func NewLogger(level LogLevel) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(os.Stdout, "", 0),
	}
}

// SetLevel changes the minimum level that is written
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Fatal logs the message and exits the process
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(LevelFatal, format, args...)
	os.Exit(1)
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	fileName := "unknown"
	if ok {
		fileName = filepath.Base(file)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	message := fmt.Sprintf(format, args...)

	logEntry := fmt.Sprintf("[%s] [%s] [%s:%d] %s",
		timestamp,
		levelNames[level],
		fileName,
		line,
		message)

	l.logger.Println(logEntry)
}

// FileLogger writes log lines to a file instead of stdout
type FileLogger struct {
	*Logger
	file *os.File
}

// NewFileLogger opens (or creates) logFile in append mode
func NewFileLogger(logFile string, level LogLevel) (*FileLogger, error) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := NewLogger(level)
	logger.logger = log.New(file, "", 0)

	return &FileLogger{
		Logger: logger,
		file:   file,
	}, nil
}

func (l *FileLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Global logger instance
var globalLogger *Logger

// InitLogger replaces the global logger
func InitLogger(level LogLevel) {
	globalLogger = NewLogger(level)
}

// GetLogger returns the global logger, creating an INFO logger on first use
func GetLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewLogger(LevelInfo)
	}
	return globalLogger
}

// InitFileLogger replaces the global logger with one writing to logFile.
// The caller closes the returned logger on shutdown.
func InitFileLogger(logFile string, level LogLevel) (*FileLogger, error) {
	fl, err := NewFileLogger(logFile, level)
	if err != nil {
		return nil, err
	}
	globalLogger = fl.Logger
	return fl, nil
}

// Convenience functions call log directly so the reported caller is the
// package that logged, not this file.
func Debug(format string, args ...interface{}) {
	GetLogger().log(LevelDebug, format, args...)
}

func Info(format string, args ...interface{}) {
	GetLogger().log(LevelInfo, format, args...)
}

func Warn(format string, args ...interface{}) {
	GetLogger().log(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	GetLogger().log(LevelError, format, args...)
}

func Fatal(format string, args ...interface{}) {
	GetLogger().log(LevelFatal, format, args...)
	os.Exit(1)
}
