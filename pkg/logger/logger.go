package logger

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"botrouter/pkg/config"
)

type Capture func(attrs ...zap.Field)

type Logger interface {
	Context(ctx context.Context) context.Context
	ContextWithCapture(ctx context.Context, operationName string) (context.Context, Capture)

	Debug(ctx context.Context, log string, fields ...zapcore.Field)
	Info(ctx context.Context, log string, fields ...zapcore.Field)
	Warn(ctx context.Context, log string, fields ...zapcore.Field)
	Error(ctx context.Context, log string, fields ...zapcore.Field)
}

var Module = fx.Provide(func(cfg config.IConfig) Logger {
	return New(Options{
		Level: cfg.GetString("log.level"),
		File:  cfg.GetString("log.file"),
	})
})

// Options controls where and how much New writes.
// File is optional; when set, logs are also written to a rotating file.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New constructs a new logger.
func New(opts Options) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.FunctionKey = "func"
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := getLevel(opts.Level)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(os.Stdout), level),
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level))
	}

	// AddCallerSkip skips the wrapper frame so "caller" points at the call site.
	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return FromZap(log)
}

// FromZap wraps an existing zap logger.
func FromZap(log *zap.Logger) Logger {
	return &logger{
		lg:          log,
		idGenerator: defaultIDGenerator(),
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return FromZap(zap.NewNop())
}

type logger struct {
	lg          *zap.Logger
	idGenerator IDGenerator
}

func getLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (l *logger) Debug(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Debug(log, withContext(ctx, fields)...)
}

func (l *logger) Info(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Info(log, withContext(ctx, fields)...)
}

func (l *logger) Warn(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Warn(log, withContext(ctx, fields)...)
}

func (l *logger) Error(ctx context.Context, log string, fields ...zapcore.Field) {
	l.lg.Error(log, withContext(ctx, fields)...)
}

func withContext(ctx context.Context, fields []zapcore.Field) []zapcore.Field {
	if ctx == nil {
		return fields
	}
	return append(fields, getAttrs(ctx)...)
}
