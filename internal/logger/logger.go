// Package logger provides zap-backed structured logging for the application.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Interface defines the logger contract consumed by the rest of the
// application. Fields are alternating key/value pairs.
type Interface interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	With(fields ...any) Interface
}

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Encoding is "console" or "json".
	Encoding string
	// Development enables colored, human-friendly output.
	Development bool
}

// logLevels maps string levels to zapcore levels.
var logLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// Logger implements Interface on top of a zap.SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New creates a logger from config.
func New(cfg Config) (*Logger, error) {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}

	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	built, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{sugar: built.Sugar()}, nil
}

// parseLevel converts a string level to a zapcore.Level, defaulting to info.
func parseLevel(level string) zapcore.Level {
	if lvl, ok := logLevels[strings.ToLower(level)]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...any) { l.sugar.Debugw(msg, fields...) }

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...any) { l.sugar.Infow(msg, fields...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...any) { l.sugar.Warnw(msg, fields...) }

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...any) { l.sugar.Errorw(msg, fields...) }

// With returns a logger with the given fields attached to every entry.
func (l *Logger) With(fields ...any) Interface {
	return &Logger{sugar: l.sugar.With(fields...)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
