// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history implements the chat history screen of the congbot TUI.
//
// It lists the session store's chat summaries newest first with a search
// line on top. Search matches titles diacritic-insensitively, so typing
// "nghi dinh" finds "Nghị định". Chats can be opened, renamed, deleted one
// at a time, or marked and deleted in a batch.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/congbot/congbot-tui/internal/api"
	"github.com/congbot/congbot-tui/internal/model"
	"github.com/congbot/congbot-tui/internal/session"
	"github.com/congbot/congbot-tui/internal/ui/styles"
	"github.com/congbot/congbot-tui/internal/util"
)

// OpenedMsg asks the root model to show the chat screen for the chat the
// user picked. The switch has already happened in the store.
type OpenedMsg struct {
	ChatID string
}

// BackMsg asks the root model to return to the chat screen unchanged.
type BackMsg struct{}

// doneMsg reports the outcome of a store call issued by this screen.
type doneMsg struct {
	opened string
	detail string
}

// mode selects what the keyboard currently drives.
type mode int

const (
	modeList mode = iota
	modeSearch
	modeRename
)

// Model is the history screen state.
type Model struct {
	store *session.Store
	theme *styles.Theme

	search textinput.Model
	rename textinput.Model
	mode   mode

	cursor   int
	marked   map[string]bool
	renameID string
	busy     bool
	errMsg   string

	width  int
	height int
}

// New creates the history screen over the given session store.
func New(store *session.Store, theme *styles.Theme) Model {
	search := textinput.New()
	search.Placeholder = "Tìm kiếm cuộc trò chuyện..."
	search.CharLimit = 100

	rename := textinput.New()
	rename.Placeholder = "Tên mới..."
	rename.CharLimit = 100

	return Model{
		store:  store,
		theme:  theme,
		search: search,
		rename: rename,
		marked: make(map[string]bool),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// visible returns the summaries matching the search line. The store runs
// the diacritic-insensitive match, against the cache when one is attached.
func (m Model) visible() []model.ChatSummary {
	return m.store.SearchHistory(m.search.Value())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.search.Width = m.width - 10
		m.rename.Width = m.width - 10
		return m, nil

	case doneMsg:
		m.busy = false
		m.errMsg = msg.detail
		if msg.opened != "" {
			id := msg.opened
			return m, func() tea.Msg { return OpenedMsg{ChatID: id} }
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeRename:
			return m.updateRename(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (Model, tea.Cmd) {
	chats := m.visible()
	m.clampCursor(len(chats))

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(chats)-1 {
			m.cursor++
		}
	case "/":
		m.mode = modeSearch
		m.search.Focus()
	case "esc", "q":
		return m, func() tea.Msg { return BackMsg{} }
	case "enter":
		if len(chats) > 0 {
			return m.open(chats[m.cursor].ID)
		}
	case " ":
		if len(chats) > 0 {
			id := chats[m.cursor].ID
			m.marked[id] = !m.marked[id]
		}
	case "r":
		if len(chats) > 0 {
			m.mode = modeRename
			m.renameID = chats[m.cursor].ID
			m.rename.SetValue(chats[m.cursor].DisplayTitle())
			m.rename.Focus()
		}
	case "d":
		if len(chats) > 0 {
			return m.deleteOne(chats[m.cursor].ID)
		}
	case "x":
		return m.deleteMarked()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = modeList
		m.search.Blur()
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) updateRename(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.rename.Blur()
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.rename.Value())
		m.mode = modeList
		m.rename.Blur()
		if title == "" || m.renameID == "" {
			return m, nil
		}
		m.busy = true
		store, id := m.store, m.renameID
		return m, func() tea.Msg {
			if err := store.RenameChat(context.Background(), id, title); err != nil {
				return doneMsg{detail: api.ErrorDetail(err)}
			}
			return doneMsg{}
		}
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

func (m Model) open(chatID string) (Model, tea.Cmd) {
	m.busy = true
	store := m.store
	return m, func() tea.Msg {
		if err := store.SwitchChat(context.Background(), chatID); err != nil {
			return doneMsg{detail: api.ErrorDetail(err)}
		}
		return doneMsg{opened: chatID}
	}
}

func (m Model) deleteOne(chatID string) (Model, tea.Cmd) {
	m.busy = true
	delete(m.marked, chatID)
	store := m.store
	return m, func() tea.Msg {
		if err := store.DeleteChat(context.Background(), chatID); err != nil {
			return doneMsg{detail: api.ErrorDetail(err)}
		}
		return doneMsg{}
	}
}

func (m Model) deleteMarked() (Model, tea.Cmd) {
	ids := make([]string, 0, len(m.marked))
	for id, on := range m.marked {
		if on {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return m, nil
	}

	m.busy = true
	m.marked = make(map[string]bool)
	store := m.store
	return m, func() tea.Msg {
		if err := store.DeleteChatBatch(context.Background(), ids); err != nil {
			return doneMsg{detail: api.ErrorDetail(err)}
		}
		return doneMsg{}
	}
}

func (m *Model) clampCursor(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme
	chats := m.visible()

	var sb strings.Builder
	sb.WriteString(t.Header.Width(m.width).Render(t.HeaderTitle.Render("Lịch sử trò chuyện")))
	sb.WriteString("\n")

	if m.mode == modeSearch || m.search.Value() != "" {
		sb.WriteString(" " + m.search.View() + "\n")
	}
	if m.mode == modeRename {
		sb.WriteString(" Đổi tên: " + m.rename.View() + "\n")
	}

	if len(chats) == 0 {
		sb.WriteString("\n " + t.ChatMeta.Render("Không có cuộc trò chuyện nào."))
	}

	cursor := m.cursor
	if cursor >= len(chats) {
		cursor = len(chats) - 1
	}

	for i, ch := range chats {
		line := fmt.Sprintf("%s  %s", util.Truncate(ch.DisplayTitle(), 48), t.ChatMeta.Render(ch.Date))
		switch {
		case m.marked[ch.ID]:
			line = t.ChatItemMarked.Render("◆ " + line)
		case i == cursor:
			line = t.ChatItemSelected.Render("❯ " + line)
		default:
			line = t.ChatItem.Render("  " + line)
		}
		sb.WriteString("\n " + line)
	}

	if m.errMsg != "" {
		sb.WriteString("\n\n " + t.ErrorText.Render(m.errMsg))
	}
	if m.busy {
		sb.WriteString("\n\n " + t.ThinkingText.Render("Đang xử lý..."))
	}

	sb.WriteString("\n\n" + t.StatusBar.Width(m.width).Render(
		t.ShortcutKey.Render("enter")+t.ShortcutDesc.Render(" mở  ")+
			t.ShortcutKey.Render("/")+t.ShortcutDesc.Render(" tìm  ")+
			t.ShortcutKey.Render("r")+t.ShortcutDesc.Render(" đổi tên  ")+
			t.ShortcutKey.Render("d")+t.ShortcutDesc.Render(" xóa  ")+
			t.ShortcutKey.Render("space")+t.ShortcutDesc.Render(" chọn  ")+
			t.ShortcutKey.Render("x")+t.ShortcutDesc.Render(" xóa đã chọn  ")+
			t.ShortcutKey.Render("esc")+t.ShortcutDesc.Render(" quay lại")))

	return sb.String()
}
