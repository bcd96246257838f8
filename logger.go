// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// logger.go — Logger interface, the noop default and a zap adapter.

package gridcodec

import "go.uber.org/zap"

// Logger is the logging interface used internally by gridcodec.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Info(_ string, _ ...any)  {}
func (noopLogger) Warn(_ string, _ ...any)  {}
func (noopLogger) Error(_ string, _ ...any) {}
func (noopLogger) Debug(_ string, _ ...any) {}

type zapLogger struct{ s *zap.SugaredLogger }

// NewZapLogger adapts a zap sugared logger. A nil logger yields zap.NewNop.
func NewZapLogger(s *zap.SugaredLogger) Logger {
	if s == nil {
		s = zap.NewNop().Sugar()
	}
	return zapLogger{s: s}
}

func (l zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
func (l zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
