// Package logger provides the shared zap logger for the sync engine.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log discards everything until Init configures it, so store and queue
// wiring can log during early startup without a nil check.
var Log = zap.NewNop()

// Init configures the global logger. When logFile is set, production JSON
// output goes to the file and stdout; otherwise the development console
// encoder is used.
func Init(level string, logFile string) error {
	var config zap.Config

	if logFile != "" {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{logFile, "stdout"}
	} else {
		config = zap.NewDevelopmentConfig()
	}

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	built, err := config.Build()
	if err != nil {
		return err
	}
	Log = built

	return nil
}

func Sync() error {
	return Log.Sync()
}
