package pipeline

import (
	"fmt"
	"log/slog"
)

// Logger is the interface for logging in the pipeline package.
type Logger interface {
	ErrorPrintf(format string, args ...any)
	WarnPrintf(format string, args ...any)
	InfoPrintf(format string, args ...any)
	DebugPrintf(format string, args ...any)
}

type defaultLogger struct{}

// DefaultLogger returns the default logger instance using slog.
func DefaultLogger() Logger {
	return defaultLogger{}
}

func (f defaultLogger) ErrorPrintf(format string, args ...any) {
	slog.Error("pipeline: " + fmt.Sprintf(format, args...))
}

func (f defaultLogger) WarnPrintf(format string, args ...any) {
	slog.Warn("pipeline: " + fmt.Sprintf(format, args...))
}

func (f defaultLogger) InfoPrintf(format string, args ...any) {
	slog.Info("pipeline: " + fmt.Sprintf(format, args...))
}

func (f defaultLogger) DebugPrintf(format string, args ...any) {
	slog.Debug("pipeline: " + fmt.Sprintf(format, args...))
}

// SlogLogger creates a Logger from a slog.Logger.
func SlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l}
}

type slogLogger struct {
	*slog.Logger
}

func (s *slogLogger) ErrorPrintf(format string, args ...any) {
	s.Logger.Error("pipeline: " + fmt.Sprintf(format, args...))
}

func (s *slogLogger) WarnPrintf(format string, args ...any) {
	s.Logger.Warn("pipeline: " + fmt.Sprintf(format, args...))
}

func (s *slogLogger) InfoPrintf(format string, args ...any) {
	s.Logger.Info("pipeline: " + fmt.Sprintf(format, args...))
}

func (s *slogLogger) DebugPrintf(format string, args ...any) {
	s.Logger.Debug("pipeline: " + fmt.Sprintf(format, args...))
}
