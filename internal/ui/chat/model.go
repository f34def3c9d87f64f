// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the congbot TUI.
//
// The screen is a viewport over the active chat's transcript with a single
// input line underneath. Sending a question hands it to the session store
// on a command goroutine; the store appends the user message immediately
// and the bot reply (or a localized failure message) when the backend
// answers, so the view only ever re-reads store state.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/congbot/congbot-tui/internal/config"
	"github.com/congbot/congbot-tui/internal/model"
	"github.com/congbot/congbot-tui/internal/session"
	"github.com/congbot/congbot-tui/internal/ui/components"
	"github.com/congbot/congbot-tui/internal/ui/styles"
)

// answeredMsg signals that an Ask round-trip settled (either way).
type answeredMsg struct {
	err error
}

// OpenHistoryMsg asks the root model to show the history screen.
type OpenHistoryMsg struct{}

// LogoutMsg asks the root model to sign the user out.
type LogoutMsg struct{}

// Model is the conversation screen state.
type Model struct {
	store *session.Store
	theme *styles.Theme
	ui    config.UIConfig

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	asking bool
	width  int
	height int
	ready  bool
}

// New creates the conversation screen over the given session store. The UI
// config decides markdown rendering and which message details are shown.
func New(store *session.Store, theme *styles.Theme, ui config.UIConfig) Model {
	input := textinput.New()
	input.Placeholder = "Nhập câu hỏi của bạn..."
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		store:   store,
		theme:   theme,
		ui:      ui,
		input:   input,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshTranscript()
		return m, nil

	case answeredMsg:
		m.asking = false
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.asking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.asking {
				return m, nil
			}
			return m.send()
		case "ctrl+h":
			return m, func() tea.Msg { return OpenHistoryMsg{} }
		case "ctrl+l":
			return m, func() tea.Msg { return LogoutMsg{} }
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// send hands the typed question to the session store.
func (m Model) send() (Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}

	m.input.Reset()
	m.asking = true

	store := m.store
	ask := func() tea.Msg {
		return answeredMsg{err: store.Ask(context.Background(), query)}
	}

	// The optimistic user message appears before the backend answers
	refresh := func() Model {
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m
	}
	m = refresh()

	return m, tea.Batch(ask, m.spinner.Tick)
}

// RefreshTranscript re-renders the transcript from store state. The root
// model calls this after a chat switch.
func (m *Model) RefreshTranscript() {
	m.refreshTranscript()
	m.viewport.GotoBottom()
}

func (m *Model) layout() {
	headerHeight := 1
	footerHeight := 4
	vpHeight := m.height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - 6

	if !m.ui.RenderMarkdown {
		m.markdown = nil
		return
	}
	if r, err := components.NewMarkdownRenderer(m.contentWidth()); err == nil {
		m.markdown = r
	}
}

func (m *Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	messages := m.store.Messages()
	if len(messages) == 0 {
		m.viewport.SetContent(m.theme.ThinkingText.Render(
			"Chưa có tin nhắn nào. Hãy đặt câu hỏi để bắt đầu."))
		return
	}

	var sb strings.Builder
	for i, msg := range messages {
		bubble := components.NewMessageBubble(msg, m.theme, m.markdown)
		bubble.SetWidth(m.contentWidth())
		bubble.ShowProcessing = m.ui.ShowProcessingTime
		bubble.ShowContext = m.ui.ShowContext
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(bubble.View())
	}
	m.viewport.SetContent(sb.String())
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Đang khởi tạo..."
	}

	header := m.theme.Header.Width(m.width).Render(m.headerText())

	inputLine := m.theme.InputPrompt.Render("❯ ") + m.input.View()
	if m.asking {
		inputLine = m.spinner.View() + " " + m.theme.ThinkingText.Render("Đang xử lý câu hỏi...")
	}
	footer := m.theme.InputContainer.Width(m.width - 2).Render(inputLine)

	status := m.theme.StatusBar.Width(m.width).Render(
		m.theme.ShortcutKey.Render("ctrl+h") + m.theme.ShortcutDesc.Render(" lịch sử  ") +
			m.theme.ShortcutKey.Render("ctrl+l") + m.theme.ShortcutDesc.Render(" đăng xuất  ") +
			m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" thoát"))

	return header + "\n" + m.viewport.View() + "\n" + footer + "\n" + status
}

func (m Model) headerText() string {
	title := model.DefaultChatTitle
	current := m.store.CurrentChatID()
	for _, ch := range m.store.History() {
		if ch.ID == current {
			title = ch.DisplayTitle()
			break
		}
	}

	who := ""
	if u := m.store.User(); u != nil {
		who = fmt.Sprintf("  %s", u.Name)
	}
	return m.theme.HeaderTitle.Render("CôngBot") + "  " + title + m.theme.HeaderUser.Render(who)
}
