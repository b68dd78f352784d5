// Package observe provides zap logging and Prometheus metrics for providers.
// Both are wired through the provider hook options, so the core engine stays
// free of any particular logging or metrics system.
package observe

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bjaus/invoke"
	"github.com/bjaus/invoke/config"
)

// NewLogger builds a zap logger from cfg. Unknown levels fall back to info.
// The returned cleanup flushes the logger and closes a file sink; call it
// once the logger is no longer used.
func NewLogger(cfg config.LogConfig) (*zap.Logger, func(), error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	path := cfg.OutputPath
	switch path {
	case "":
		path = "stdout"
	case "stdout", "stderr":
	default:
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
	}
	ws, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, ws, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	cleanup := func() {
		_ = logger.Sync()
		closeSink()
	}
	return logger, cleanup, nil
}

// Logging returns provider options that log the invocation lifecycle.
//
//	p := aws.New(cfg, observe.Logging(logger)...)
func Logging(logger *zap.Logger) []invoke.Option {
	return []invoke.Option{
		invoke.WithOnSelect(func(ctx context.Context, service, adapter string) context.Context {
			logger.Debug("adapter selected",
				zap.String("service", service),
				zap.String("adapter", adapter))
			return ctx
		}),
		invoke.WithOnSuccess(func(_ context.Context, service, adapter string, d time.Duration) {
			logger.Info("invocation succeeded",
				zap.String("service", service),
				zap.String("adapter", adapter),
				zap.Duration("duration", d))
		}),
		invoke.WithOnFailure(func(_ context.Context, service, adapter string, err error, d time.Duration) {
			logger.Warn("handler failed",
				zap.String("service", service),
				zap.String("adapter", adapter),
				zap.Duration("duration", d),
				zap.Error(err))
		}),
		invoke.WithOnNoAdapter(func(_ context.Context, service string, raw []byte) {
			logger.Error("no adapter matched envelope",
				zap.String("service", service),
				zap.Int("size", len(raw)))
		}),
		invoke.WithOnResolveError(func(_ context.Context, service, adapter string, err error) {
			logger.Error("parameter resolution failed",
				zap.String("service", service),
				zap.String("adapter", adapter),
				zap.Error(err))
		}),
		invoke.WithOnTransformError(func(_ context.Context, service, adapter string, err error) {
			logger.Error("result transformation failed",
				zap.String("service", service),
				zap.String("adapter", adapter),
				zap.Error(err))
		}),
		invoke.WithOnInvoke(func(_ context.Context, service, target string, err error, d time.Duration) {
			if err != nil {
				logger.Warn("remote invoke failed",
					zap.String("service", service),
					zap.String("target", target),
					zap.Duration("duration", d),
					zap.Error(err))
				return
			}
			logger.Debug("remote invoke",
				zap.String("service", service),
				zap.String("target", target),
				zap.Duration("duration", d))
		}),
	}
}
