package jwtgate

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// badKey is used for a trailing value without a key, as log/slog does.
const badKey = "!BADKEY"

// NewZapLogger returns a Logger adapter for zap.SugaredLogger.
func NewZapLogger(l *zap.SugaredLogger) Logger {
	return &zapLoggerAdapter{l}
}

type zapLoggerAdapter struct{ l *zap.SugaredLogger }

func (z *zapLoggerAdapter) Debug(msg string, args ...any) { z.l.Debugw(msg, pairs(args)...) }
func (z *zapLoggerAdapter) Info(msg string, args ...any)  { z.l.Infow(msg, pairs(args)...) }
func (z *zapLoggerAdapter) Warn(msg string, args ...any)  { z.l.Warnw(msg, pairs(args)...) }
func (z *zapLoggerAdapter) Error(msg string, args ...any) { z.l.Errorw(msg, pairs(args)...) }

// NewZerologLogger returns a Logger adapter for zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLoggerAdapter{l}
}

type zerologLoggerAdapter struct{ l zerolog.Logger }

func (z *zerologLoggerAdapter) Debug(msg string, args ...any) {
	z.l.Debug().Fields(pairs(args)).Msg(msg)
}
func (z *zerologLoggerAdapter) Info(msg string, args ...any) {
	z.l.Info().Fields(pairs(args)).Msg(msg)
}
func (z *zerologLoggerAdapter) Warn(msg string, args ...any) {
	z.l.Warn().Fields(pairs(args)).Msg(msg)
}
func (z *zerologLoggerAdapter) Error(msg string, args ...any) {
	z.l.Error().Fields(pairs(args)).Msg(msg)
}

// NewLogrusLogger returns a Logger adapter for logrus.FieldLogger.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (l *logrusLoggerAdapter) Debug(msg string, args ...any) { l.l.WithFields(fields(args)).Debug(msg) }
func (l *logrusLoggerAdapter) Info(msg string, args ...any)  { l.l.WithFields(fields(args)).Info(msg) }
func (l *logrusLoggerAdapter) Warn(msg string, args ...any)  { l.l.WithFields(fields(args)).Warn(msg) }
func (l *logrusLoggerAdapter) Error(msg string, args ...any) { l.l.WithFields(fields(args)).Error(msg) }

// pairs normalizes slog-style arguments into string keys followed by values.
// Values are stringified when they implement neither error nor a basic kind
// the backends already know how to print.
func pairs(args []any) []any {
	out := make([]any, 0, len(args)+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out = append(out, badKey, args[i])
			break
		}
		out = append(out, fmt.Sprint(args[i]), value(args[i+1]))
	}
	return out
}

func fields(args []any) logrus.Fields {
	kv := pairs(args)
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		f[kv[i].(string)] = kv[i+1]
	}
	return f
}

func value(v any) any {
	switch v := v.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}
