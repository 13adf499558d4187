package utils

import "strings"

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// CleanText strips CDATA markers, collapses runs of whitespace and trims.
func CleanText(str string) string {
	if strings.Contains(str, cdataOpen) {
		str = strings.ReplaceAll(str, cdataOpen, "")
		str = strings.ReplaceAll(str, cdataClose, "")
	}

	return NormalizeWhitespace(str)
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString truncates string to max runes.
func TruncateString(str string, maxLength int) string {
	runes := []rune(str)
	if len(runes) <= maxLength {
		return str
	}

	return string(runes[:maxLength]) + "..."
}
