// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, chats and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns the label shown next to messages in the chat view.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "Bạn"
	case SenderBot:
		return "Trợ lý"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single message in the active chat. Messages are append-only:
// the session store replaces the whole list when switching chats and appends
// exchanges as they complete, but never reorders or mutates entries in place.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// Bot-only fields
	ProcessingTime float64   `json:"processingTime,omitempty"` // seconds
	Context        []Snippet `json:"context,omitempty"`        // retrieval snippets
}

// Snippet is one retrieved document fragment attached to a bot answer.
type Snippet struct {
	DocID   string  `json:"doc_id,omitempty"`
	Title   string  `json:"doc_title,omitempty"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// NewUserMessage creates a user message with a generated ID.
func NewUserMessage(text string, at time.Time) Message {
	return Message{
		ID:        "user_" + uuid.NewString(),
		Sender:    SenderUser,
		Text:      text,
		Timestamp: at,
	}
}

// NewBotMessage creates a bot message with a generated ID.
func NewBotMessage(text string, at time.Time, processingTime float64, context []Snippet) Message {
	return Message{
		ID:             "bot_" + uuid.NewString(),
		Sender:         SenderBot,
		Text:           text,
		Timestamp:      at,
		ProcessingTime: processingTime,
		Context:        context,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Preview returns a truncated single-line preview of the message text.
// Uses rune-based truncation to handle Vietnamese text correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no text.
func (m Message) IsEmpty() bool {
	return len(m.Text) == 0
}

// HasContext returns true if the message carries retrieval snippets.
func (m Message) HasContext() bool {
	return len(m.Context) > 0
}
