package emoji

// EmojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":    {"❌", "[ERR]"},
	"success":  {"✅", "[OK]"},
	"info":     {"ℹ️", "[INF]"},
	"post":     {"📝", "[POST]"},
	"comment":  {"💬", "[CMT]"},
	"link":     {"🔗", "[>]"},
	"back":     {"↩️", "[<]"},
	"form":     {"✏️", "[FORM]"},
	"loading":  {"⏳", "[...]"},
	"rocket":   {"🚀", "[BLOG]"},
	"help":     {"❓", "[?]"},
	"door":     {"🚪", "[EXIT]"},
	"template": {"🧩", "[TPL]"},
	"clock":    {"⏱️", "[T]"},
	"warning":  {"⚠️", "[WARN]"},
	"document": {"📄", "[DOC]"},
	"chart":    {"📊", "[STATS]"},
	"folder":   {"📁", "[DIR]"},
	"target":   {"🎯", "[*]"},
	"bulb":     {"💡", "[TIP]"},
}

var emojiDisabled bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled = disabled
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled {
			return mapping[1] // fallback
		}
		return mapping[0] // emoji
	}
	return "[?]" // unknown key
}

// ForKind returns the glyph for a notification kind ("success", "error",
// "info"). Unknown kinds get the info glyph.
func ForKind(kind string) string {
	switch kind {
	case "success", "error":
		return GetEmoji(kind)
	default:
		return GetEmoji("info")
	}
}
