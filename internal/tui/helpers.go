package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// formatTime renders a relative timestamp for list displays.
func formatTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// formatExpiry renders time remaining until a beam expires.
func formatExpiry(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return ""
	}
	d := time.Until(expiresAt)
	switch {
	case d <= 0:
		return "expired"
	case d < time.Hour:
		return fmt.Sprintf("expires in %dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("expires in %dh", int(d.Hours()))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// previewLine collapses content to a single display line so multi-line
// shares keep list rows one row tall.
func previewLine(raw string) string {
	s := strings.ReplaceAll(raw, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	parts := strings.Fields(s)
	return strings.Join(parts, " ")
}

// isLink reports whether the content looks like something a browser can open.
func isLink(content string) bool {
	c := strings.TrimSpace(content)
	return strings.HasPrefix(c, "http://") || strings.HasPrefix(c, "https://")
}
