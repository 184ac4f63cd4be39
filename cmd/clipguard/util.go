// cmd/clipguard/util.go
package main

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// truncateText cuts a string so the result, ellipsis included, is at
// most max bytes, cutting on a rune boundary.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - len("...")
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// normalizeText applies NFC normalization and narrows full-width forms
// so that transcripts and claim text compare and embed consistently.
func normalizeText(s string) string {
	s = norm.NFC.String(s)
	s = width.Narrow.String(s)
	return strings.TrimSpace(s)
}

// formatDate renders a date for prompts; empty for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02")
}
