// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the congbot TUI.
package components

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wordWrap breaks text into lines no wider than width display columns.
// Width is measured with runewidth so wide characters count as two columns.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	currentWidth := 0

	for _, word := range words {
		w := runewidth.StringWidth(word)
		switch {
		case current == "":
			current, currentWidth = word, w
		case currentWidth+1+w <= width:
			current += " " + word
			currentWidth += 1 + w
		default:
			lines = append(lines, current)
			current, currentWidth = word, w
		}
	}
	return append(lines, current)
}

// maxLineWidth returns the widest display width across the lines of text.
func maxLineWidth(text string) int {
	max := 0
	for _, line := range strings.Split(text, "\n") {
		if w := runewidth.StringWidth(line); w > max {
			max = w
		}
	}
	return max
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
