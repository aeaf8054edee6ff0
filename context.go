package smolagent

import (
	"context"
	"log/slog"
)

type ctxLoggerKey struct{}

var defaultLogger = slog.New(slog.DiscardHandler)

func ctxWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// LoggerFromContext returns the logger bound to the current run. A discard logger is returned when none is bound.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return defaultLogger
}

// LogLevel controls which agent log records are emitted.
type LogLevel int

const (
	LogLevelOff LogLevel = iota - 1
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level.
func (x LogLevel) String() string {
	switch x {
	case LogLevelOff:
		return "off"
	case LogLevelError:
		return "error"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

func (x LogLevel) slogLevel() slog.Level {
	switch x {
	case LogLevelError:
		return slog.LevelError
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// levelHandler gates records below the configured agent log level before handing them to the wrapped handler.
type levelHandler struct {
	level slog.Level
	inner slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.inner.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, inner: h.inner.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, inner: h.inner.WithGroup(name)}
}

func applyLogLevel(logger *slog.Logger, level LogLevel) *slog.Logger {
	if level == LogLevelOff {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(&levelHandler{level: level.slogLevel(), inner: logger.Handler()})
}
