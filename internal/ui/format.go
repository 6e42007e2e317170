package ui

import (
	"fmt"
	"math"
	"strings"
)

const (
	readoutUnknown = "--.-s"
	readoutError   = "ERR"
)

// formatLag renders a delay as a broadcast-style readout: -SS.Ds behind live,
// +SS.Ds ahead of it, --.-s when unknown.
func formatLag(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return readoutUnknown
	}
	sign := "-"
	if seconds < 0 {
		sign = "+"
	}
	tenths := int64(math.Round(math.Abs(seconds) * 10))
	return fmt.Sprintf("%s%02d.%ds", sign, tenths/10, tenths%10)
}

// formatWindow renders a seek window length, e.g. 1:05:00 or 4:30.
func formatWindow(seconds float64) string {
	if math.IsNaN(seconds) || seconds <= 0 {
		return "none"
	}
	total := int64(math.Floor(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// truncateMiddle shortens s to width runes, eliding the middle.
func truncateMiddle(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	head := (width - 1) / 2
	tail := width - 1 - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}

// firstLine returns s up to the first newline, trimmed.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
