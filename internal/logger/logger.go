package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger.
// level: "debug", "info", "warn", "error" (default "info").
// format: "json" or "console" (default "json").
func New(level, format, serviceName string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	if serviceName != "" {
		base = base.With(zap.String("service_name", serviceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		base = base.With(zap.String("hostname", hostname))
	}

	return base, nil
}
