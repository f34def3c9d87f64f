// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/congbot/congbot-tui/internal/model"
	"github.com/congbot/congbot-tui/internal/ui/styles"
	"github.com/congbot/congbot-tui/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one chat message as a styled bubble. User messages
// sit to the right in blue, assistant answers to the left in teal with the
// markdown rendered, processing time and retrieval context underneath.
type MessageBubble struct {
	Message        model.Message
	Width          int
	ShowTimestamp  bool
	ShowProcessing bool
	ShowContext    bool

	theme    *styles.Theme
	markdown *glamour.TermRenderer
}

// NewMessageBubble creates a bubble for msg. The markdown renderer may be
// nil, in which case assistant text renders as plain wrapped text.
func NewMessageBubble(msg model.Message, theme *styles.Theme, markdown *glamour.TermRenderer) *MessageBubble {
	return &MessageBubble{
		Message:        msg,
		Width:          80,
		ShowTimestamp:  true,
		ShowProcessing: true,
		ShowContext:    true,
		theme:          theme,
		markdown:       markdown,
	}
}

// NewMarkdownRenderer builds the glamour renderer used for bot answers.
func NewMarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
}

// SetWidth sets the total width the bubble may occupy.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message.Sender == model.SenderUser {
		return b.renderUser()
	}
	return b.renderBot()
}

// ==========================================================================
// USER BUBBLE - right-aligned
// ==========================================================================

func (b *MessageBubble) renderUser() string {
	content := b.Message.Text
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-8)

	bubble := b.theme.UserBubble.Width(contentWidth).Render(wrapped)
	header := b.header()

	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}
	margin := lipgloss.NewStyle().MarginLeft(leftMargin)

	return margin.Render(header) + "\n" + margin.Render(bubble)
}

// ==========================================================================
// BOT BUBBLE - left-aligned, markdown body
// ==========================================================================

func (b *MessageBubble) renderBot() string {
	maxContentWidth := b.Width - 8
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	body := b.Message.Text
	if b.markdown != nil {
		if rendered, err := b.markdown.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		} else {
			body = wordWrap(body, maxContentWidth)
		}
	} else {
		body = wordWrap(body, maxContentWidth)
	}

	bubble := b.theme.BotBubble.Width(minInt(maxLineWidth(body)+4, b.Width-4)).Render(body)

	parts := []string{b.header(), bubble}
	if b.ShowProcessing && b.Message.ProcessingTime > 0 {
		parts = append(parts, b.theme.ProcessingTime.Render(
			fmt.Sprintf("Xử lý trong %.2f giây", b.Message.ProcessingTime)))
	}
	if b.ShowContext && b.Message.HasContext() {
		parts = append(parts, b.renderContext(maxContentWidth))
	}
	return strings.Join(parts, "\n")
}

// renderContext lists the retrieval snippets that grounded the answer.
func (b *MessageBubble) renderContext(width int) string {
	var sb strings.Builder
	sb.WriteString(b.theme.ContextTitle.Render("Nguồn tham khảo"))
	for i, sn := range b.Message.Context {
		title := sn.Title
		if title == "" {
			title = sn.DocID
		}
		line := fmt.Sprintf("%d. %s", i+1, title)
		if sn.Score > 0 {
			line += b.theme.ChatMeta.Render(fmt.Sprintf(" (%.2f)", sn.Score))
		}
		sb.WriteString("\n")
		sb.WriteString(line)
		if sn.Content != "" {
			sb.WriteString("\n")
			sb.WriteString(b.theme.ChatMeta.Render(wordWrap(util.Truncate(sn.Content, 160), width-3)))
		}
	}
	return b.theme.ContextBox.Render(sb.String())
}

// header is the sender label plus the localized timestamp.
func (b *MessageBubble) header() string {
	label := b.theme.SenderLabel.Render(b.Message.Sender.DisplayName())
	if !b.ShowTimestamp || b.Message.Timestamp.IsZero() {
		return label
	}
	return label + " " + b.theme.Timestamp.Render(b.Message.Timestamp.Format("15:04"))
}
