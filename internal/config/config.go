// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for congbot.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.congbot/config.toml
//   - ~/.congbot/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/congbot/congbot-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete congbot client configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend API configuration
	API APIConfig `toml:"api" json:"api"`

	// Session behavior
	Session SessionConfig `toml:"session" json:"session"`

	// Local history cache
	Cache CacheConfig `toml:"cache" json:"cache"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains the remote backend configuration.
type APIConfig struct {
	// BaseURL is the root of the chatbot REST API
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSec throttles outgoing calls (0 = unlimited)
	RequestsPerSec float64 `toml:"requests_per_sec" json:"requests_per_sec"`
}

// SessionConfig controls the session store's retry and watcher behavior.
type SessionConfig struct {
	// MaxRetries is the number of attempts for history and message fetches
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RetryDelayMs is the fixed delay between attempts in milliseconds
	RetryDelayMs int `toml:"retry_delay_ms" json:"retry_delay_ms"`
	// AuthCheckSecs is the auth watcher polling interval in seconds
	AuthCheckSecs int `toml:"auth_check_secs" json:"auth_check_secs"`
}

// CacheConfig contains local history cache configuration.
type CacheConfig struct {
	// Enabled controls whether the sqlite history cache is active
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the database file location (empty = ~/.congbot/history.db)
	Path string `toml:"path" json:"path"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// RenderMarkdown renders bot answers through the markdown renderer
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
	// ShowProcessingTime displays answer timing under bot messages
	ShowProcessingTime bool `toml:"show_processing_time" json:"show_processing_time"`
	// ShowContext displays retrieved snippets under bot messages
	ShowContext bool `toml:"show_context" json:"show_context"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the production backend endpoint.
const DefaultBaseURL = "https://ng3owb-congbotfe.hf.space"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSecs:    30,
			RequestsPerSec: 5,
		},

		Session: SessionConfig{
			MaxRetries:    3,
			RetryDelayMs:  1000,
			AuthCheckSecs: 2,
		},

		Cache: CacheConfig{
			Enabled: true,
			Path:    "", // resolved to ~/.congbot/history.db
		},

		UI: UIConfig{
			Theme:              "dark",
			RenderMarkdown:     true,
			ShowProcessingTime: true,
			ShowContext:        true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the congbot configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".congbot"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last, then validation.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finish(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finish(cfg)
		}
	}

	return finish(cfg)
}

// finish applies env overrides and validation to a loaded config.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies CONGBOT_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CONGBOT_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("CONGBOT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = n
		}
	}
	if v := os.Getenv("CONGBOT_AUTH_CHECK_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Session.AuthCheckSecs = n
		}
	}
	if v := os.Getenv("CONGBOT_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("CONGBOT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration and clamps out-of-range values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme %q is not supported", parsed.Scheme)
	}

	if c.API.TimeoutSecs < 1 {
		c.API.TimeoutSecs = 1
	}
	if c.API.TimeoutSecs > 300 {
		c.API.TimeoutSecs = 300
	}
	if c.API.RequestsPerSec < 0 {
		c.API.RequestsPerSec = 0
	}

	if c.Session.MaxRetries < 0 {
		c.Session.MaxRetries = 0
	}
	if c.Session.MaxRetries > 10 {
		c.Session.MaxRetries = 10
	}
	if c.Session.RetryDelayMs < 0 {
		c.Session.RetryDelayMs = 0
	}
	// Polling faster than once a second is wasted work; slower than 30s
	// leaves stale sessions on screen too long.
	if c.Session.AuthCheckSecs < 1 {
		c.Session.AuthCheckSecs = 1
	}
	if c.Session.AuthCheckSecs > 30 {
		c.Session.AuthCheckSecs = 30
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		c.UI.Theme = "dark"
	}

	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns the API request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// RetryDelay returns the fixed retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Session.RetryDelayMs) * time.Millisecond
}

// AuthCheckInterval returns the auth watcher polling interval.
func (c *Config) AuthCheckInterval() time.Duration {
	return time.Duration(c.Session.AuthCheckSecs) * time.Second
}

// CachePath resolves the history cache path, defaulting under the config dir.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// =============================================================================
// SAVE
// =============================================================================

// EnsureConfigFile writes the configuration to config.toml when no config
// file exists yet, so first-run users get a file to edit. An existing TOML
// or JSON file is left alone.
func (c *Config) EnsureConfigFile() error {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return nil
	}
	return c.SaveTOML()
}

// SaveTOML writes the configuration to the TOML config file.
func (c *Config) SaveTOML() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}

	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}
