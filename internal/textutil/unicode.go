package textutil

import "unicode/utf8"

// Ellipsis marks a truncated preview.
const Ellipsis = "..."

// TruncateUTF8 truncates the provided string if it's longer than the max length in runes (not bytes).
func TruncateUTF8(s string, maxLen int) string {
	// Shortcuts for the simple cases
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	for i := range s {
		if maxLen == 0 {
			return s[:i]
		}
		maxLen--
	}
	return s
}

// Preview returns the first maxLen runes of s followed by Ellipsis when s
// is longer than maxLen, and s unchanged otherwise.
func Preview(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return TruncateUTF8(s, maxLen) + Ellipsis
}

// RuneLen is the length of s in runes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
