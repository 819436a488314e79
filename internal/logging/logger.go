package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "corkboard-api"

// NewLogger returns a structured logger tagged with the service name. Debug
// switches to zap's development config so board traffic stays readable during
// local runs; every other level emits production JSON.
func NewLogger(level string) (*zap.Logger, error) {
	parsed := parseLevel(level)

	cfg := zap.NewProductionConfig()
	if parsed == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.InitialFields = map[string]any{"service": serviceName}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
