package controller

import "strings"

// Default titles used before a conversation has content.
const (
	DefaultTitle  = "New Conversation"
	UntitledTitle = "Untitled"
)

// titleMaxLen is how many characters of the first line survive into a
// derived session title.
const titleMaxLen = 28

// FormatTitle derives a session title from the first message: the first
// line of the content, truncated to titleMaxLen characters with a trailing
// ellipsis when the line is longer. Blank content falls back to Untitled.
func FormatTitle(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return UntitledTitle
	}

	runes := []rune(line)
	if len(runes) <= titleMaxLen {
		return line
	}
	return string(runes[:titleMaxLen]) + "..."
}
