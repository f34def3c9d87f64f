// congbot TUI - a terminal client for the congbot policy-support chatbot.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/congbot/congbot-tui/internal/api"
	"github.com/congbot/congbot-tui/internal/auth"
	"github.com/congbot/congbot-tui/internal/config"
	"github.com/congbot/congbot-tui/internal/session"
	"github.com/congbot/congbot-tui/internal/storage"
	"github.com/congbot/congbot-tui/internal/ui"
	"github.com/congbot/congbot-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "version" || os.Args[1] == "--version") {
		fmt.Printf("congbot %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "congbot needs an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureConfigFile(); err != nil {
		log.Printf("could not write default config: %v", err)
	}

	creds, err := auth.DefaultStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening credential store: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.BaseURL, creds).
		WithTimeout(cfg.Timeout()).
		WithRateLimit(cfg.API.RequestsPerSec)

	// A 401 anywhere tears the session down; the auth watcher notices the
	// cleared credentials and drops the UI back to the login screen.
	client.OnUnauthorized(func() {
		creds.Clear()
	})

	store := session.NewStore(client, client, creds).
		WithRetryPolicy(cfg.Session.MaxRetries, cfg.RetryDelay())

	var cache *storage.HistoryCache
	if cfg.Cache.Enabled {
		path, err := cfg.CachePath()
		if err == nil {
			cache, err = storage.Open(path)
		}
		if err != nil {
			log.Printf("history cache disabled: %v", err)
		} else {
			store.WithCache(cache)
			defer cache.Close()
		}
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	app := ui.NewApp(store, creds, client, theme, cfg.UI)

	p := tea.NewProgram(app, tea.WithAltScreen())

	onAuthLost := func() {
		p.Send(ui.AuthLostMsg{})
	}
	store.StartAuthWatcher(cfg.AuthCheckInterval(), onAuthLost)
	defer store.StopAuthWatcher()

	// Fast path beside the poll: react to the credentials file changing
	// (another process logging out) without waiting for the next tick.
	if fw, err := auth.NewFileWatcher(creds, func() {
		store.CheckAuth(onAuthLost)
	}); err != nil {
		log.Printf("credentials watcher unavailable: %v", err)
	} else {
		defer fw.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running congbot: %v\n", err)
		os.Exit(1)
	}
}
