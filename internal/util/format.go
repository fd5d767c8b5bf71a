package util

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SingleLine collapses runs of whitespace, newlines included, to one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatBytes formats a byte count as "82 kB".
func FormatBytes(n int64) string {
	if n < 0 {
		return "—"
	}
	return humanize.Bytes(uint64(n))
}

// FormatCount formats n with its noun: "1 step", "3 steps".
func FormatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}

// FormatOrdinal formats a 1-based position as "1st", "2nd".
func FormatOrdinal(n int) string {
	return humanize.Ordinal(n)
}
