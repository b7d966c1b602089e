package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileOptions configures the rotating log file written alongside stderr.
type LogFileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewFileLogger tees JSON records into a rotating file and console records to stderr.
// An empty opts.Path falls back to NewLogger.
func NewFileLogger(debug bool, opts LogFileOptions) (*zap.Logger, error) {
	if opts.Path == "" {
		return NewLogger(debug)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	level := zap.InfoLevel
	consoleEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if debug {
		level = zap.DebugLevel
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(rotator), level),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level),
	)
	return zap.New(core, zap.AddCaller()), nil
}
