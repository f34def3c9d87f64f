// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER AND STATUS BAR STYLES
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderUser   lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble     lipgloss.Style
	BotBubble      lipgloss.Style
	SenderLabel    lipgloss.Style
	Timestamp      lipgloss.Style
	ProcessingTime lipgloss.Style
	ContextBox     lipgloss.Style
	ContextTitle   lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// FORM STYLES (login / register)
	// ==========================================================================

	FormBox        lipgloss.Style
	FormTitle      lipgloss.Style
	FormLabel      lipgloss.Style
	FormError      lipgloss.Style
	CheckboxOn     lipgloss.Style
	CheckboxOff    lipgloss.Style
	ButtonActive   lipgloss.Style
	ButtonInactive lipgloss.Style

	// ==========================================================================
	// HISTORY LIST STYLES
	// ==========================================================================

	ChatList         lipgloss.Style
	ChatItem         lipgloss.Style
	ChatItemSelected lipgloss.Style
	ChatItemMarked   lipgloss.Style
	ChatTitle        lipgloss.Style
	ChatMeta         lipgloss.Style

	// ==========================================================================
	// FEEDBACK STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ErrorBox     lipgloss.Style
	ErrorText    lipgloss.Style
	SuccessText  lipgloss.Style
}

// NewTheme creates a new theme with all styles configured. mode is the
// configured theme: "dark" and "light" pin the adaptive colors to that
// background, "auto" (or anything else) keeps terminal detection.
func NewTheme(mode string) *Theme {
	switch mode {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}

	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Background(SurfaceDim).
		Padding(0, 2)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Teal)
	t.HeaderUser = lipgloss.NewStyle().Foreground(TextSecondary)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(Blue)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)
	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		Background(BotBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1)
	t.SenderLabel = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.ProcessingTime = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.ContextBox = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)
	t.ContextTitle = lipgloss.NewStyle().Bold(true).Foreground(Teal)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(Blue)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(TextMuted)

	// Forms
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Teal).
		Padding(1, 3)
	t.FormTitle = lipgloss.NewStyle().Bold(true).Foreground(Teal)
	t.FormLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.FormError = lipgloss.NewStyle().Foreground(Rose)
	t.CheckboxOn = lipgloss.NewStyle().Foreground(Emerald)
	t.CheckboxOff = lipgloss.NewStyle().Foreground(TextMuted)
	t.ButtonActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(Surface).
		Background(Blue).
		Padding(0, 2)
	t.ButtonInactive = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 2)

	// History list
	t.ChatList = lipgloss.NewStyle().Padding(0, 1)
	t.ChatItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ChatItemSelected = lipgloss.NewStyle().Bold(true).Foreground(Blue)
	t.ChatItemMarked = lipgloss.NewStyle().Foreground(Amber)
	t.ChatTitle = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ChatMeta = lipgloss.NewStyle().Foreground(TextMuted)

	// Feedback
	t.Spinner = lipgloss.NewStyle().Foreground(Teal)
	t.ThinkingText = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.ErrorBox = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.SuccessText = lipgloss.NewStyle().Foreground(Emerald)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
