package veldapp

import (
	"github.com/veldhttp/veld"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment. Uses
// JSON encoding suitable for log aggregation. VELDAPP_LOG_LEVEL controls
// the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func newVeldLogger(l *zap.Logger) veld.Logger {
	return veld.NewZapLogger(l.Named("veldapp"))
}
