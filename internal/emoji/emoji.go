package emoji

import "sync/atomic"

// emojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":           {"❌", "[ERR]"},
	"warning":         {"⚠️", "[WRN]"},
	"info":            {"ℹ️", "[INF]"},
	"success":         {"✅", "[OK]"},
	"upload":          {"📤", "[UP]"},
	"file":            {"📄", "[PDF]"},
	"summary":         {"📝", "[SUM]"},
	"classification":  {"🏷️", "[TAG]"},
	"entity":          {"🧪", "[ENT]"},
	"recommendations": {"📋", "[REC]"},
	"question":        {"💬", "[Q]"},
	"answer":          {"🩺", "[A]"},
	"library":         {"🗂️", "[LIB]"},
	"watch":           {"👀", "[WATCH]"},
	"help":            {"❓", "[?]"},
	"door":            {"🚪", "[EXIT]"},
	"heart":           {"❤️", "<3"},
}

var emojiDisabled atomic.Bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled.Store(disabled)
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled.Load()
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled.Load() {
			return mapping[1]
		}
		return mapping[0]
	}
	return "[?]"
}
