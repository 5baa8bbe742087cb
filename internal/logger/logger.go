package logger

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

// New builds the process logger. Logs go to stderr so that stdout carries
// only the geometry summaries. Every line is tagged with a fresh run id.
func New(cfg LoggerConfig) (*zap.Logger, error) {
	return build(cfg, zapcore.Lock(os.Stderr))
}

func build(cfg LoggerConfig, out zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("error parsing log level: %w", err)
		}
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		enc = zapcore.NewConsoleEncoder(GetEncoderConfig(zapcore.DefaultLineEnding))
	case "json":
		enc = zapcore.NewJSONEncoder(GetEncoderConfig(zapcore.DefaultLineEnding))
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(level))
	return zap.New(core,
		zap.AddStacktrace(zapcore.DPanicLevel),
		zap.Fields(
			zap.String("run_id", uuid.NewString()),
			zap.Int("pid", os.Getpid()),
		),
	), nil
}

func GetEncoderConfig(lineEnding string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		MessageKey:     "message",
		LevelKey:       "level",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     lineEnding,
	}
}
