package logger

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/samvad-hq/api-mastery/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface shared by every package.
type Logger interface {
	InfoObj(msg, key string, obj any)
	DebugObj(msg, key string, obj any)
	WarnObj(msg, key string, obj any)
	ErrorObj(msg, key string, obj any)
}

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// ZapLogger adapts a zap logger to Logger.
type ZapLogger struct {
	l *zap.Logger
}

// Init initializes a zap logger using settings from config. JSON is written
// unless stdout is a terminal.
func Init(cfg *config.Config) (*ZapLogger, error) {
	level := "info"
	if cfg != nil {
		level = cfg.LogLevel
	}
	console := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	zl := New(level, os.Stdout, console)
	S = zl.l.Sugar()
	return zl, nil
}

// New builds a logger writing to w at the given level.
func New(level string, w io.Writer, console bool) *ZapLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if console {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		parseLevel(level),
	)

	return &ZapLogger{l: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Minimal object logging helpers -------------------------------------------------
// These log the given object as a structured field named `key` and do not
// attempt to parse arbitrary kv arrays.

func (z *ZapLogger) InfoObj(msg, key string, obj any)  { z.l.Info(msg, field(key, obj)) }
func (z *ZapLogger) DebugObj(msg, key string, obj any) { z.l.Debug(msg, field(key, obj)) }
func (z *ZapLogger) WarnObj(msg, key string, obj any)  { z.l.Warn(msg, field(key, obj)) }
func (z *ZapLogger) ErrorObj(msg, key string, obj any) { z.l.Error(msg, field(key, obj)) }

// Sync flushes the underlying core.
func (z *ZapLogger) Sync() error { return z.l.Sync() }

func field(key string, obj any) zap.Field {
	if err, ok := obj.(error); ok {
		return zap.String(key, err.Error())
	}
	return zap.Any(key, obj)
}

func InfoObj(msg, key string, obj any) {
	if S == nil {
		return
	}
	S.Desugar().Info(msg, field(key, obj))
}

func DebugObj(msg, key string, obj any) {
	if S == nil {
		return
	}
	S.Desugar().Debug(msg, field(key, obj))
}

func WarnObj(msg, key string, obj any) {
	if S == nil {
		return
	}
	S.Desugar().Warn(msg, field(key, obj))
}

func ErrorObj(msg, key string, obj any) {
	if S == nil {
		return
	}
	S.Desugar().Error(msg, field(key, obj))
}

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, any)  {}
func (*NopLogger) DebugObj(string, string, any) {}
func (*NopLogger) WarnObj(string, string, any)  {}
func (*NopLogger) ErrorObj(string, string, any) {}
