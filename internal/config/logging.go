package config

import (
	"log/slog"
	"strings"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// NormalizeLogFormat maps raw input to a format, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatJSON):
		return LogFormatJSON
	default:
		return LogFormatText
	}
}

// NormalizeLogLevel maps raw input to an slog level, defaulting to info.
func NormalizeLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
