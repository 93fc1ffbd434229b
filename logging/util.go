package logging

import (
	"log/slog"
	"strings"
)

// LevelFromString defaults to INFO for nil and anything unknown.
func LevelFromString(str *string) slog.Level {
	if str == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(*str))); err != nil {
		return slog.LevelInfo
	}
	return level
}
