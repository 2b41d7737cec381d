package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// Config 日志配置
type Config struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

var global = zap.NewNop()

// New 按配置创建 zap logger
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	zc.DisableStacktrace = true

	return zc.Build()
}

// SetGlobal 替换全局 logger，进程启动时调用一次
func SetGlobal(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global = l
}

// L 全局 logger
func L() *zap.Logger {
	return global
}

// WithTraceID 把 traceId 放进 context，后续日志自动带上
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// TraceID 取出 context 中的 traceId
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ctx 返回带 trace_id 字段的 logger
func Ctx(ctx context.Context) *zap.Logger {
	if id := TraceID(ctx); id != "" {
		return global.With(zap.String("trace_id", id))
	}
	return global
}
