// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, chats and messages.
package model

import (
	"time"

	"github.com/congbot/congbot-tui/internal/util"
)

// StatusActive marks a chat as live. The backend may report other statuses
// for soft-deleted or invalid chats; the history list only ever holds active
// entries because the mapping hardcodes this value.
const StatusActive = "active"

// DefaultChatTitle is the title given to chats created without one.
const DefaultChatTitle = "Cuộc trò chuyện mới"

// =============================================================================
// CHAT SUMMARY TYPE
// =============================================================================

// ChatSummary is the lightweight metadata record for one chat, without
// message bodies. The session store owns the ordered list (newest first);
// views only read it.
type ChatSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"` // localized vi-VN date string
	UpdatedAt time.Time `json:"updated_at"`
	Status    string    `json:"status"`
}

// DisplayTitle returns the title to render: the default placeholder when the
// stored title is empty or a raw backend id, the title itself otherwise.
func (c ChatSummary) DisplayTitle() string {
	if util.IsPlaceholderTitle(c.Title) {
		return DefaultChatTitle
	}
	return c.Title
}

// IsActive returns true if the chat has active status.
func (c ChatSummary) IsActive() bool {
	return c.Status == StatusActive
}
