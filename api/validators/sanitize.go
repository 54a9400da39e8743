package validators

import (
	"strings"
	"unicode"
)

// SanitizeString collapses whitespace runs to one space, drops control
// characters and keeps at most maxLen runes. maxLen <= 0 means no limit.
func SanitizeString(input string, maxLen int) string {
	out := make([]rune, 0, len(input))
	pendingSpace := false
	for _, r := range input {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = len(out) > 0
		case unicode.IsControl(r):
		default:
			if pendingSpace {
				out = append(out, ' ')
				pendingSpace = false
			}
			out = append(out, r)
		}
	}
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return strings.TrimRight(string(out), " ")
}
