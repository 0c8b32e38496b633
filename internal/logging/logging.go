// Package logging provides the module's shared zap logger configuration.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger for the given component name. debug controls
// whether Debug-level records (parse anomalies, unknown sequences) are
// emitted; production deployments run with debug=false so the
// high-frequency, expected "unknown escape sequence" logs stay silent.
func New(component string, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		// Build only fails on a malformed config; fall back to a minimal
		// logger rather than taking the process down over logging setup.
		logger = zap.NewNop()
	}
	return logger.Named(component)
}

// NewDebugFromEnv is a convenience constructor reading the module's debug
// toggle from the environment, mirroring the teacher's VIBETUNNEL_DEBUG
// pattern with a component-neutral name.
func NewDebugFromEnv(component string) *zap.Logger {
	_, debug := os.LookupEnv("TERMHOST_DEBUG")
	return New(component, debug)
}
