package cli

import (
	"github.com/yildizm/BlogView/internal/emoji"
)

// GetEmoji is a wrapper for the shared emoji package
func GetEmoji(key string) string {
	return emoji.GetEmoji(key)
}

// GetStatusEmoji returns the success or error glyph
func GetStatusEmoji(ok bool) string {
	if ok {
		return GetEmoji("success")
	}
	return GetEmoji("error")
}

// GetLevelEmoji returns the glyph for a log level name
func GetLevelEmoji(level string) string {
	switch level {
	case "ERROR", "FATAL":
		return GetEmoji("error")
	case "WARN", "WARNING":
		return GetEmoji("warning")
	default:
		return GetEmoji("clock")
	}
}
