package utils

import "strings"

// FirstToken returns the first comma-separated element of a header value,
// trimmed of whitespace
func FirstToken(value string) string {
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}
