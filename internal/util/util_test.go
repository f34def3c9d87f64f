// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the congbot terminal client.
package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "data.json")

	if err := AtomicWriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestAtomicWriteFile_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	if err := AtomicWriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	// No temp files should survive
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

// =============================================================================
// DATE FORMATTING TESTS
// =============================================================================

func TestFormatDateVN(t *testing.T) {
	ts := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	if got := FormatDateVN(ts); got != "02/01/2024" {
		t.Errorf("FormatDateVN = %q, want 02/01/2024", got)
	}
}

func TestFormatDateTimeVN(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"today", time.Date(2024, 6, 15, 9, 5, 0, 0, time.UTC), "Hôm nay, 09:05"},
		{"yesterday", time.Date(2024, 6, 14, 22, 45, 0, 0, time.UTC), "Hôm qua, 22:45"},
		{"older", time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), "02/01/2024 08:00"},
		{"zero", time.Time{}, "N/A"},
	}

	for _, tc := range tests {
		if got := FormatDateTimeVN(tc.t, now); got != tc.want {
			t.Errorf("%s: FormatDateTimeVN = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDateLabel(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

	if got := DateLabel(now, now); got != "Hôm nay" {
		t.Errorf("today label = %q", got)
	}
	if got := DateLabel(now.AddDate(0, 0, -1), now); got != "Hôm qua" {
		t.Errorf("yesterday label = %q", got)
	}
	if got := DateLabel(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), now); got != "01/03/2024" {
		t.Errorf("older label = %q", got)
	}
}

// =============================================================================
// TEXT HELPER TESTS
// =============================================================================

func TestIsPlaceholderTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"65f1a2b3c4d5e6f7a8b9c0d1", true}, // raw backend id
		{"Chính sách bảo hiểm", false},
		{"65f1a2b3", false}, // too short to be an id
	}

	for _, tc := range tests {
		if got := IsPlaceholderTitle(tc.title); got != tc.want {
			t.Errorf("IsPlaceholderTitle(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 0, ""},
		{"abcdef", 2, "ab"},
	}

	for _, tc := range tests {
		if got := Truncate(tc.input, tc.maxLen); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
		}
	}
}

func TestTruncate_Unicode(t *testing.T) {
	// Vietnamese text must not be split mid-rune.
	got := Truncate("Cuộc trò chuyện mới về chính sách", 10)
	if len([]rune(got)) != 10 {
		t.Errorf("Truncate produced %d runes, want 10", len([]rune(got)))
	}
}

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestFoldVN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Chính sách", "chinh sach"},
		{"Đăng nhập", "dang nhap"},
		{"HỖ TRỢ", "ho tro"},
		{"plain ascii", "plain ascii"},
	}

	for _, tc := range tests {
		if got := FoldVN(tc.input); got != tc.want {
			t.Errorf("FoldVN(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestContainsFoldVN(t *testing.T) {
	if !ContainsFoldVN("Chính sách bảo hiểm y tế", "bao hiem") {
		t.Error("expected accent-insensitive match")
	}
	if ContainsFoldVN("Chính sách", "thuế") {
		t.Error("unexpected match")
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidateEmail(t *testing.T) {
	if msg := ValidateEmail(""); msg != "Vui lòng nhập email" {
		t.Errorf("empty email message = %q", msg)
	}
	if msg := ValidateEmail("not-an-email"); msg != "Email không hợp lệ" {
		t.Errorf("invalid email message = %q", msg)
	}
	if msg := ValidateEmail("alice@example.com"); msg != "" {
		t.Errorf("valid email message = %q", msg)
	}
}

func TestValidatePassword(t *testing.T) {
	if msg := ValidatePassword(""); msg == "" {
		t.Error("empty password should fail")
	}
	if msg := ValidatePassword("abc"); msg != "Mật khẩu phải có ít nhất 6 ký tự" {
		t.Errorf("short password message = %q", msg)
	}
	if msg := ValidatePassword("secret1"); msg != "" {
		t.Errorf("valid password message = %q", msg)
	}
}

func TestValidateUsername(t *testing.T) {
	if msg := ValidateUsername(""); msg == "" {
		t.Error("empty username should fail")
	}
	if msg := ValidateUsername("ab"); msg == "" {
		t.Error("short username should fail")
	}
	if msg := ValidateUsername("alice"); msg != "" {
		t.Errorf("valid username message = %q", msg)
	}
}

func TestValidateConfirmPassword(t *testing.T) {
	if msg := ValidateConfirmPassword("secret1", ""); msg != "Vui lòng xác nhận mật khẩu" {
		t.Errorf("empty confirm message = %q", msg)
	}
	if msg := ValidateConfirmPassword("secret1", "secret2"); msg != "Mật khẩu không khớp" {
		t.Errorf("mismatch message = %q", msg)
	}
	if msg := ValidateConfirmPassword("secret1", "secret1"); msg != "" {
		t.Errorf("match message = %q", msg)
	}
}
