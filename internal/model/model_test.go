// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, chats and messages.
package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := NewUserMessage("Xin chào", at)

	if !strings.HasPrefix(msg.ID, "user_") {
		t.Errorf("user message ID = %q, want user_ prefix", msg.ID)
	}
	if msg.Sender != SenderUser {
		t.Errorf("Sender = %q, want user", msg.Sender)
	}
	if msg.Text != "Xin chào" {
		t.Errorf("Text = %q", msg.Text)
	}
	if !msg.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, at)
	}
}

func TestNewBotMessage(t *testing.T) {
	at := time.Now()
	chunks := []Snippet{{DocID: "d1", Content: "điều 5"}}
	msg := NewBotMessage("Chào bạn", at, 0.42, chunks)

	if !strings.HasPrefix(msg.ID, "bot_") {
		t.Errorf("bot message ID = %q, want bot_ prefix", msg.ID)
	}
	if msg.Sender != SenderBot {
		t.Errorf("Sender = %q, want bot", msg.Sender)
	}
	if msg.ProcessingTime != 0.42 {
		t.Errorf("ProcessingTime = %v, want 0.42", msg.ProcessingTime)
	}
	if !msg.HasContext() {
		t.Error("expected HasContext to be true")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewUserMessage("x", time.Now())
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestMessagePreview(t *testing.T) {
	msg := NewUserMessage("Chính sách bảo hiểm xã hội áp dụng thế nào?", time.Now())

	preview := msg.Preview(20)
	if len([]rune(preview)) != 20 {
		t.Errorf("preview has %d runes, want 20", len([]rune(preview)))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("preview %q should end with ellipsis", preview)
	}

	short := NewUserMessage("ngắn", time.Now())
	if got := short.Preview(20); got != "ngắn" {
		t.Errorf("short preview = %q", got)
	}
}

func TestSenderDisplayName(t *testing.T) {
	if got := SenderUser.DisplayName(); got != "Bạn" {
		t.Errorf("user display name = %q", got)
	}
	if got := SenderBot.DisplayName(); got != "Trợ lý" {
		t.Errorf("bot display name = %q", got)
	}
}

// =============================================================================
// CHAT SUMMARY TESTS
// =============================================================================

func TestChatSummaryDisplayTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"", DefaultChatTitle},
		{"   ", DefaultChatTitle},
		{"65f1a2b3c4d5e6f7a8b9c0d1", DefaultChatTitle},
		{"Hỏi về thuế thu nhập", "Hỏi về thuế thu nhập"},
	}

	for _, tc := range tests {
		c := ChatSummary{ID: "c1", Title: tc.title}
		if got := c.DisplayTitle(); got != tc.want {
			t.Errorf("DisplayTitle(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestChatSummaryIsActive(t *testing.T) {
	c := ChatSummary{Status: StatusActive}
	if !c.IsActive() {
		t.Error("active chat should report IsActive")
	}
	c.Status = "deleted"
	if c.IsActive() {
		t.Error("deleted chat should not report IsActive")
	}
}

// =============================================================================
// USER PROFILE TESTS
// =============================================================================

func TestUserProfileIsAdmin(t *testing.T) {
	var nilUser *UserProfile
	if nilUser.IsAdmin() {
		t.Error("nil profile should not be admin")
	}

	u := &UserProfile{Role: RoleAdmin}
	if !u.IsAdmin() {
		t.Error("admin profile should report IsAdmin")
	}

	u.Role = RoleUser
	if u.IsAdmin() {
		t.Error("user profile should not report IsAdmin")
	}
}
