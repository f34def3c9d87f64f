// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the congbot terminal client.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes characters and strips combining marks, so that
// "Chính sách" and "Chinh sach" compare equal.
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldVN lowercases text and removes Vietnamese diacritics for
// accent-insensitive matching. The Đ/đ pair is not a combining mark and is
// mapped by hand.
func FoldVN(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "đ", "d")
	return folded
}

// ContainsFoldVN reports whether text contains query, ignoring case and
// diacritics in both.
func ContainsFoldVN(text, query string) bool {
	return strings.Contains(FoldVN(text), FoldVN(query))
}
