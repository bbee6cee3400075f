/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logging provides module scoped loggers backed by zap.
//
//	Basic Flow:
//	1) Optionally call logging.Initialize with a custom zap logger
//	2) Create new logger for specific module
//	3) Call log info
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level defines all available log levels for log messages.
type Level int

// Log levels.
const (
	CRITICAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

var levelNames = []string{
	"CRITICAL",
	"ERROR",
	"WARNING",
	"INFO",
	"DEBUG",
}

func (l Level) String() string {
	if l < CRITICAL || l > DEBUG {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// defaultModule holds the level applied to modules that have no level of their own
const defaultModule = ""

var (
	rwmutex      sync.RWMutex
	moduleLevels = map[string]Level{defaultModule: INFO}

	baseOnce sync.Once
	baseMtx  sync.RWMutex
	base     *zap.Logger
)

// Logger is a module logger. The underlying zap logger is created lazily on first use.
type Logger struct {
	module   string
	once     sync.Once
	instance *zap.SugaredLogger
}

// NewLogger creates and returns a Logger object based on the module name.
func NewLogger(module string) *Logger {
	return &Logger{module: module}
}

// Initialize replaces the zap logger that backs all module loggers.
// It must be called before any log output to take effect for every module.
func Initialize(l *zap.Logger) {
	baseOnce.Do(func() {})
	baseMtx.Lock()
	defer baseMtx.Unlock()
	base = l
}

func baseLogger() *zap.Logger {
	baseOnce.Do(func() {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
		baseMtx.Lock()
		base = zap.New(core)
		baseMtx.Unlock()
	})
	baseMtx.RLock()
	defer baseMtx.RUnlock()
	return base
}

// SetLevel sets the log level for the given module. An empty module sets the default level.
func SetLevel(module string, level Level) {
	rwmutex.Lock()
	defer rwmutex.Unlock()
	moduleLevels[module] = level
}

// GetLevel returns the log level for the given module
func GetLevel(module string) Level {
	rwmutex.RLock()
	defer rwmutex.RUnlock()
	if level, ok := moduleLevels[module]; ok {
		return level
	}
	return moduleLevels[defaultModule]
}

// IsEnabledFor returns true if the given level is enabled for the given module
func IsEnabledFor(module string, level Level) bool {
	return level <= GetLevel(module)
}

// LogLevel returns the log level from a string representation.
func LogLevel(level string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "CRITICAL", "FATAL", "PANIC":
		return CRITICAL, nil
	case "ERROR":
		return ERROR, nil
	case "WARNING", "WARN":
		return WARNING, nil
	case "INFO":
		return INFO, nil
	case "DEBUG":
		return DEBUG, nil
	}
	return INFO, errors.Errorf("invalid log level: %s", level)
}

func (l *Logger) logger() *zap.SugaredLogger {
	l.once.Do(func() {
		l.instance = baseLogger().Named(l.module).WithOptions(zap.AddCallerSkip(1)).Sugar()
	})
	return l.instance
}

// Fatalf logs a CRITICAL message followed by a call to os.Exit(1).
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger().Fatalf(format, args...)
}

// Panicf logs a CRITICAL message and panics.
func (l *Logger) Panicf(format string, args ...interface{}) {
	l.logger().Panicf(format, args...)
}

// Debug logs at DEBUG level
func (l *Logger) Debug(args ...interface{}) {
	if IsEnabledFor(l.module, DEBUG) {
		l.logger().Debug(args...)
	}
}

// Debugf logs at DEBUG level
func (l *Logger) Debugf(format string, args ...interface{}) {
	if IsEnabledFor(l.module, DEBUG) {
		l.logger().Debugf(format, args...)
	}
}

// Info logs at INFO level
func (l *Logger) Info(args ...interface{}) {
	if IsEnabledFor(l.module, INFO) {
		l.logger().Info(args...)
	}
}

// Infof logs at INFO level
func (l *Logger) Infof(format string, args ...interface{}) {
	if IsEnabledFor(l.module, INFO) {
		l.logger().Infof(format, args...)
	}
}

// Warn logs at WARNING level
func (l *Logger) Warn(args ...interface{}) {
	if IsEnabledFor(l.module, WARNING) {
		l.logger().Warn(args...)
	}
}

// Warnf logs at WARNING level
func (l *Logger) Warnf(format string, args ...interface{}) {
	if IsEnabledFor(l.module, WARNING) {
		l.logger().Warnf(format, args...)
	}
}

// Error logs at ERROR level
func (l *Logger) Error(args ...interface{}) {
	if IsEnabledFor(l.module, ERROR) {
		l.logger().Error(args...)
	}
}

// Errorf logs at ERROR level
func (l *Logger) Errorf(format string, args ...interface{}) {
	if IsEnabledFor(l.module, ERROR) {
		l.logger().Errorf(format, args...)
	}
}
