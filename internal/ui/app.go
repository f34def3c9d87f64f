// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui wires the congbot screens into one Bubble Tea program.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/congbot/congbot-tui/internal/api"
	"github.com/congbot/congbot-tui/internal/auth"
	"github.com/congbot/congbot-tui/internal/config"
	"github.com/congbot/congbot-tui/internal/session"
	"github.com/congbot/congbot-tui/internal/ui/chat"
	"github.com/congbot/congbot-tui/internal/ui/history"
	"github.com/congbot/congbot-tui/internal/ui/login"
	"github.com/congbot/congbot-tui/internal/ui/styles"
)

// screen identifies which view currently owns the terminal.
type screen int

const (
	screenLogin screen = iota
	screenChat
	screenHistory
)

// AuthLostMsg is sent from outside the program (the store's auth watcher)
// when stored credentials vanished under a live session.
type AuthLostMsg struct{}

// bootstrappedMsg signals that the post-login profile and history loads
// finished; both are best-effort, so there is nothing to report.
type bootstrappedMsg struct{}

// App is the root model.
type App struct {
	store  *session.Store
	creds  *auth.Store
	client *api.Client
	theme  *styles.Theme

	login   login.Model
	chat    chat.Model
	history history.Model
	screen  screen

	width  int
	height int
}

// NewApp builds the root model. When valid credentials are already stored
// the app opens straight on the chat screen.
func NewApp(store *session.Store, creds *auth.Store, client *api.Client, theme *styles.Theme, uiCfg config.UIConfig) App {
	app := App{
		store:   store,
		creds:   creds,
		client:  client,
		theme:   theme,
		login:   login.New(client, creds, theme),
		chat:    chat.New(store, theme, uiCfg),
		history: history.New(store, theme),
		screen:  screenLogin,
	}
	if creds.Get().IsValid {
		app.screen = screenChat
	}
	return app
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.login.Init(), a.chat.Init()}
	if a.screen == screenChat {
		cmds = append(cmds, a.bootstrap(a.creds.Get().UserID))
	}
	return tea.Batch(cmds...)
}

// bootstrap loads the profile and history after sign-in. Both calls degrade
// on failure, so the chat screen is usable even when they miss.
func (a App) bootstrap(userID string) tea.Cmd {
	store := a.store
	return func() tea.Msg {
		store.FetchUserInfo(context.Background(), userID)
		store.FetchChatHistory(context.Background())
		return bootstrappedMsg{}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.theme.SetSize(msg.Width, msg.Height)
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		cmds = append(cmds, cmd)
		a.chat, cmd = a.chat.Update(msg)
		cmds = append(cmds, cmd)
		a.history, cmd = a.history.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case login.SuccessMsg:
		a.screen = screenChat
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, tea.Batch(cmd, a.bootstrap(msg.UserID))

	case bootstrappedMsg:
		a.chat.RefreshTranscript()
		return a, nil

	case chat.OpenHistoryMsg:
		a.screen = screenHistory
		return a, nil

	case chat.LogoutMsg:
		return a.logout()

	case AuthLostMsg:
		// The watcher already reset the store; drop to the login screen
		a.screen = screenLogin
		a.chat.RefreshTranscript()
		return a, nil

	case history.OpenedMsg:
		a.screen = screenChat
		a.chat.RefreshTranscript()
		return a, nil

	case history.BackMsg:
		a.screen = screenChat
		return a, nil
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.Update(msg)
	case screenChat:
		a.chat, cmd = a.chat.Update(msg)
	case screenHistory:
		a.history, cmd = a.history.Update(msg)
	}
	return a, cmd
}

// logout clears credentials and session state and shows the login form.
func (a App) logout() (tea.Model, tea.Cmd) {
	a.creds.Clear()
	a.store.ResetAuthState()
	a.screen = screenLogin
	a.chat.RefreshTranscript()
	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	switch a.screen {
	case screenChat:
		return a.chat.View()
	case screenHistory:
		return a.history.View()
	default:
		return a.login.View()
	}
}
