// Package log: default slog-backed provider.
//
// Package-level GetLogger / GetLoggerWithName are what library code calls;
// they delegate to a swappable LoggerProvider so tests can capture output.

package log

import (
	"context"
	"log/slog"
	"sync"
)

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = NewSlogProvider()
)

// SetLoggerProvider replaces the package-level provider. Pass a
// TestLoggerProvider in tests to capture log output.
func SetLoggerProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a logger carrying a component identifier,
// e.g. GetLoggerWithName("ensemble.forest").
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}

// SlogProvider is the default LoggerProvider, backed by slog.Default().
// The minimum level is tracked locally so SetLevel works regardless of how
// the underlying handler was configured.
type SlogProvider struct {
	level *slog.LevelVar
}

// NewSlogProvider creates a provider at info level.
func NewSlogProvider() *SlogProvider {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelInfo)
	return &SlogProvider{level: lv}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *SlogProvider) GetLogger() Logger {
	return &slogLogger{logger: slog.Default(), level: p.level}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{logger: slog.Default().With(ComponentKey, name), level: p.level}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *SlogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

func (s *slogLogger) enabled(level slog.Level) bool {
	return level >= s.level.Level()
}

// Debug implements Logger.Debug.
func (s *slogLogger) Debug(msg string, fields ...any) {
	if s.enabled(slog.LevelDebug) {
		s.logger.Debug(msg, fields...)
	}
}

// Info implements Logger.Info.
func (s *slogLogger) Info(msg string, fields ...any) {
	if s.enabled(slog.LevelInfo) {
		s.logger.Info(msg, fields...)
	}
}

// Warn implements Logger.Warn.
func (s *slogLogger) Warn(msg string, fields ...any) {
	if s.enabled(slog.LevelWarn) {
		s.logger.Warn(msg, fields...)
	}
}

// Error implements Logger.Error.
func (s *slogLogger) Error(msg string, fields ...any) {
	if s.enabled(slog.LevelError) {
		s.logger.Error(msg, fields...)
	}
}

// With implements Logger.With.
func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: s.logger.With(fields...), level: s.level}
}

// Enabled implements Logger.Enabled.
func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.enabled(slog.Level(level)) && s.logger.Enabled(ctx, slog.Level(level))
}
