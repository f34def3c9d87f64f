// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the congbot terminal client.
package util

import (
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// DATE FORMATTING (vi-VN)
// =============================================================================

// FormatDateVN formats a time as a Vietnamese short date (dd/mm/yyyy),
// matching toLocaleDateString('vi-VN') in the web client.
func FormatDateVN(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDateTimeVN formats a timestamp relative to now the way the chat
// sidebar displays it: "Hôm nay, 15:04" for today, "Hôm qua, 15:04" for
// yesterday, full date and time otherwise. Returns "N/A" for the zero time.
func FormatDateTimeVN(t, now time.Time) string {
	if t.IsZero() {
		return "N/A"
	}

	if sameDay(t, now) {
		return "Hôm nay, " + t.Format("15:04")
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Hôm qua, " + t.Format("15:04")
	}
	return t.Format("02/01/2006 15:04")
}

// DateLabel returns a grouping label for a chat date: "Hôm nay", "Hôm qua",
// or the short date.
func DateLabel(t, now time.Time) string {
	if sameDay(t, now) {
		return "Hôm nay"
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Hôm qua"
	}
	return FormatDateVN(t)
}

// sameDay reports whether two times fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

// mongoIDPattern matches a 24-character hex identifier. The backend sometimes
// stores the raw chat id as the title; those are treated as untitled.
var mongoIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsPlaceholderTitle reports whether a chat title should be replaced with the
// default display title: empty, whitespace-only, or a raw backend id.
func IsPlaceholderTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	return trimmed == "" || mongoIDPattern.MatchString(trimmed)
}

// Truncate shortens text to maxLen characters, appending "..." if truncated.
// Uses rune-based truncation so Vietnamese text is never split mid-character.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
