package formatter

import (
	"fmt"
	"time"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/BlogView/internal/emoji"
)

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// plural returns "1 comment" / "2 comments"
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%s %ss", formatNumber(n), word)
}

// getKindEmoji returns the glyph for a notification kind
func getKindEmoji(kind string) string {
	return emoji.ForKind(kind)
}

// getStatsEmoji returns the session section glyph using go-termfmt
func getStatsEmoji(opts *termfmt.TerminalOptions) string {
	return termfmt.GetEmoji("statistics", opts)
}

// nanos renders a nanosecond count as a rounded duration
func nanos(ns int64) string {
	return time.Duration(ns).Round(time.Microsecond).String()
}
