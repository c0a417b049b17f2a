package logger

import (
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	*slog.Logger
}

func New(logLevel string) *Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(logLevel),
		AddSource: logLevel == "debug",
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &Logger{
		Logger: slog.New(handler),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
	}
}

func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
	}
}

func (l *Logger) RouteApplied(action, destination, gateway string, duration int64, success bool) {
	l.Info("route operation completed",
		slog.String("action", action),
		slog.String("destination", destination),
		slog.String("gateway", gateway),
		slog.Int64("duration_ms", duration),
		slog.Bool("success", success))
}

func (l *Logger) RouteRemoved(destination string, duration int64, success bool) {
	l.Info("route removed",
		slog.String("destination", destination),
		slog.Int64("duration_ms", duration),
		slog.Bool("success", success))
}

func (l *Logger) HandleOpened(backend string) {
	l.Info("routing table handle opened",
		slog.String("backend", backend))
}

func (l *Logger) HandleClosed(backend string) {
	l.Info("routing table handle closed",
		slog.String("backend", backend))
}

func (l *Logger) BackendEvent(backend, change, destination string) {
	l.Info("route change observed",
		slog.String("backend", backend),
		slog.String("change", change),
		slog.String("destination", destination))
}

func (l *Logger) BatchOperation(action string, total, success, failed int, duration int64) {
	l.Info("batch operation completed",
		slog.String("action", action),
		slog.Int("total", total),
		slog.Int("success", success),
		slog.Int("failed", failed),
		slog.Int64("duration_ms", duration))
}

func (l *Logger) ConfigLoaded(file string) {
	l.Info("configuration loaded",
		slog.String("config_file", file))
}

func (l *Logger) DumpRetry(attempt, maxAttempts int, err error) {
	l.Warn("routing table dump retrying",
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", maxAttempts),
		slog.String("error", err.Error()))
}

func (l *Logger) Performance(operation string, metrics map[string]interface{}) {
	args := []interface{}{
		"operation", operation,
	}
	
	for k, v := range metrics {
		args = append(args, k, v)
	}
	
	l.Debug("performance metrics", args...)
}