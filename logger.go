package veld

import (
	"log"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogUnhandledServeError(err error)
	LogImplicitFlushError(err error)
	LogReporterPanic(v any)
	LogErrorHandlerFailure(err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogUnhandledServeError(err error) {
	l.Logger.Printf("veld: unhandled serve error: %s", err)
}

func (l stdLogger) LogImplicitFlushError(err error) {
	l.Logger.Printf("veld: error while flushing implicitly: %s", err)
}

func (l stdLogger) LogReporterPanic(v any) {
	l.Logger.Printf("veld: error reporter panicked: %v", v)
}

func (l stdLogger) LogErrorHandlerFailure(err error) {
	l.Logger.Printf("veld: error handler failed: %s", err)
}

func NewStdLogger(l *log.Logger) Logger {
	return stdLogger{l}
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogUnhandledServeError(err error) {
	l.Logger.Error("unhandled serve error", zap.Error(err))
}

func (l zapLogger) LogImplicitFlushError(err error) {
	l.Logger.Error("error while flushing implicitly", zap.Error(err))
}

func (l zapLogger) LogReporterPanic(v any) {
	l.Logger.Error("error reporter panicked", zap.Any("panic", v))
}

func (l zapLogger) LogErrorHandlerFailure(err error) {
	l.Logger.Error("error handler failed", zap.Error(err))
}

// NewZapLogger adapts a zap logger to the [Logger] interface.
func NewZapLogger(l *zap.Logger) Logger {
	return zapLogger{l.Named("veld")}
}

// TestLogger counts logged conditions so tests can assert on them.
type TestLogger struct {
	tb testing.TB

	NumLogUnhandledServeError int64
	NumLogImplicitFlushError  int64
	NumLogReporterPanic       int64
	NumLogErrorHandlerFailure int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogUnhandledServeError(err error) {
	atomic.AddInt64(&l.NumLogUnhandledServeError, 1)
	l.tb.Logf("veld: unhandled serve error: %s", err)
}

func (l *TestLogger) LogImplicitFlushError(err error) {
	atomic.AddInt64(&l.NumLogImplicitFlushError, 1)
	l.tb.Logf("veld: error while flushing implicitly: %s", err)
}

func (l *TestLogger) LogReporterPanic(v any) {
	atomic.AddInt64(&l.NumLogReporterPanic, 1)
	l.tb.Logf("veld: error reporter panicked: %v", v)
}

func (l *TestLogger) LogErrorHandlerFailure(err error) {
	atomic.AddInt64(&l.NumLogErrorHandlerFailure, 1)
	l.tb.Logf("veld: error handler failed: %s", err)
}

var _ Logger = &TestLogger{}
