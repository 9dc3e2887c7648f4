// Package logger holds the process-wide zap logger. Initialize is called
// once from main; until then Logger returns a no-op logger, so packages can
// log during early startup without a nil check.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop()

// Initialize builds the global JSON logger at the given level. Level names
// follow zapcore.ParseLevel ("debug", "info", "warn", "error").
func Initialize(logLevel string) error {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	config := zap.Config{
		Encoding:         "json",
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			TimeKey:      "time",
			CallerKey:    "caller",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	built, err := config.Build()
	if err != nil {
		return err
	}

	log = built
	return nil
}

// Logger returns the global logger.
func Logger() *zap.Logger {
	return log
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() error {
	return log.Sync()
}
