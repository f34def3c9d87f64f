// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the sign-in form of the congbot TUI.
package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/congbot/congbot-tui/internal/api"
	"github.com/congbot/congbot-tui/internal/auth"
	"github.com/congbot/congbot-tui/internal/ui/styles"
	"github.com/congbot/congbot-tui/internal/util"
)

// Focusable fields, cycled with tab.
const (
	fieldUsername = iota
	fieldPassword
	fieldRemember
	fieldSubmit
	fieldCount
)

// SuccessMsg is emitted after credentials are verified and stored.
type SuccessMsg struct {
	UserID string
}

// failedMsg carries the display message of a failed attempt.
type failedMsg struct {
	detail string
}

// AuthService is the backend surface the form needs.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
}

// Model is the login form state.
type Model struct {
	username textinput.Model
	password textinput.Model
	remember bool
	focus    int

	busy   bool
	errMsg string

	svc   AuthService
	creds *auth.Store
	theme *styles.Theme

	width  int
	height int
}

// New creates the login form.
func New(svc AuthService, creds *auth.Store, theme *styles.Theme) Model {
	username := textinput.New()
	username.Placeholder = "Tên đăng nhập"
	username.CharLimit = 128
	username.Width = 40
	username.Focus()

	password := textinput.New()
	password.Placeholder = "Mật khẩu"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return Model{
		username: username,
		password: password,
		svc:      svc,
		creds:    creds,
		theme:    theme,
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
		return m, nil

	case failedMsg:
		m.busy = false
		m.errMsg = msg.detail
		return m, nil

	case SuccessMsg:
		m.busy = false
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		case " ":
			if m.focus == fieldRemember {
				m.remember = !m.remember
				return m, nil
			}
		case "enter":
			if m.focus == fieldRemember {
				m.remember = !m.remember
				return m, nil
			}
			return m.submit()
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.username, cmd = m.username.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) setFocus(focus int) {
	m.focus = focus
	m.username.Blur()
	m.password.Blur()
	switch focus {
	case fieldUsername:
		m.username.Focus()
	case fieldPassword:
		m.password.Focus()
	}
}

// submit validates the form and fires the login request.
func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()

	if msg := util.ValidateUsername(username); msg != "" {
		m.errMsg = msg
		return m, nil
	}
	if msg := util.ValidatePassword(password); msg != "" {
		m.errMsg = msg
		return m, nil
	}

	m.errMsg = ""
	m.busy = true
	remember := m.remember

	return m, func() tea.Msg {
		resp, err := m.svc.Login(context.Background(), username, password)
		if err != nil {
			return failedMsg{detail: api.ErrorDetail(err)}
		}
		if err := m.creds.Save(resp.AccessToken, resp.UserID, remember); err != nil {
			return failedMsg{detail: "Không thể lưu phiên đăng nhập"}
		}
		return SuccessMsg{UserID: resp.UserID}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	checkbox := t.CheckboxOff.Render("[ ]")
	if m.remember {
		checkbox = t.CheckboxOn.Render("[x]")
	}
	rememberLine := checkbox + " Ghi nhớ đăng nhập"
	if m.focus == fieldRemember {
		rememberLine = t.ChatItemSelected.Render(rememberLine)
	}

	button := t.ButtonInactive.Render("Đăng nhập")
	if m.focus == fieldSubmit {
		button = t.ButtonActive.Render("Đăng nhập")
	}
	if m.busy {
		button = t.ButtonInactive.Render("Đang đăng nhập...")
	}

	rows := []string{
		t.FormTitle.Render("CôngBot - Trợ lý chính sách"),
		"",
		t.FormLabel.Render("Tên đăng nhập"),
		m.username.View(),
		"",
		t.FormLabel.Render("Mật khẩu"),
		m.password.View(),
		"",
		rememberLine,
		"",
		button,
	}
	if m.errMsg != "" {
		rows = append(rows, "", t.FormError.Render(m.errMsg))
	}

	form := t.FormBox.Render(strings.Join(rows, "\n"))
	if m.width == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}
