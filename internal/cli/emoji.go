package cli

import (
	"strings"

	"github.com/yildizm/ReportLens/internal/emoji"
	"github.com/yildizm/ReportLens/internal/upload"
)

const progressBarLength = 20

// GetEmoji is a wrapper for the shared emoji package
func GetEmoji(key string) string {
	return emoji.GetEmoji(key)
}

// GetFailureEmoji returns the emoji for a failure kind with fallback support
func GetFailureEmoji(kind upload.Kind) string {
	switch kind {
	case upload.KindNoFile, upload.KindFileTooLarge:
		return GetEmoji("warning")
	case upload.KindNotMedical:
		return GetEmoji("info")
	default:
		return GetEmoji("error")
	}
}

// CreateProgressBar creates a text progress bar with ASCII fallback
func CreateProgressBar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filledLength := int(percent / 100 * progressBarLength)

	filled, empty := "█", "░"
	if isEmojiDisabled() {
		filled, empty = "#", "-"
	}

	return "[" + strings.Repeat(filled, filledLength) + strings.Repeat(empty, progressBarLength-filledLength) + "]"
}
