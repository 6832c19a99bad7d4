package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

type ctxKey struct{}

var (
	nop      = zap.NewNop()
	fallback atomic.Pointer[zap.Logger]
)

// SetDefault sets the logger FromContext returns for contexts that carry
// none, e.g. work started outside an HTTP request. nil restores the no-op logger.
func SetDefault(l *zap.Logger) {
	fallback.Store(l)
}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger, then the default, then a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if l := fallback.Load(); l != nil {
		return l
	}
	return nop
}

// With derives a child of the context logger with extra fields and stores it back.
func With(ctx context.Context, fields ...zap.Field) (context.Context, *zap.Logger) {
	l := FromContext(ctx).With(fields...)
	return ContextWithLogger(ctx, l), l
}
