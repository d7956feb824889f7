package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CollapseSpace trims s and replaces every run of whitespace with a
// single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Capitalize upper-cases the first rune and lower-cases the rest, so
// "elon MUSK" becomes "Elon musk".
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}

// FirstParts keeps the first n sep-separated parts of s and joins them
// with sep followed by a space. "Jan. 2, 2025, 10:00 AM" with n=2 is
// "Jan. 2, 2025".
func FirstParts(s, sep string, n int) string {
	parts := strings.Split(s, sep)
	if len(parts) > n {
		parts = parts[:n]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, sep+" ")
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
