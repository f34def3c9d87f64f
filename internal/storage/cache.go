// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite cache of chat history.
//
// The cache is write-through: the session store writes chats and messages
// here after every successful fetch, and reads them back when the backend
// is unreachable. It is an offline copy, never the source of truth.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/congbot/congbot-tui/internal/model"
	"github.com/congbot/congbot-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCacheMiss indicates the requested data has never been cached.
	ErrCacheMiss = errors.New("not in cache")

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed = errors.New("cache closed")
)

// =============================================================================
// HISTORY CACHE
// =============================================================================

// HistoryCache is the local SQLite store of chat lists and messages.
type HistoryCache struct {
	db *sql.DB
	mu sync.Mutex

	closed bool
}

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	user_id    TEXT NOT NULL,
	chat_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	date_label TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	status     TEXT NOT NULL,
	position   INTEGER NOT NULL,
	PRIMARY KEY (user_id, chat_id)
);

CREATE TABLE IF NOT EXISTS messages (
	chat_id         TEXT NOT NULL,
	position        INTEGER NOT NULL,
	message_id      TEXT NOT NULL,
	sender          TEXT NOT NULL,
	text            TEXT NOT NULL,
	sent_at         INTEGER NOT NULL,
	processing_time REAL NOT NULL,
	context_json    TEXT NOT NULL,
	PRIMARY KEY (chat_id, position)
);

CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id, position);
`

// Open opens (or creates) the cache database at path.
func Open(path string) (*HistoryCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &HistoryCache{db: db}, nil
}

// Close closes the underlying database.
func (c *HistoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// PutChats replaces the cached chat list for userID, preserving order.
func (c *HistoryCache) PutChats(userID string, chats []model.ChatSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chats WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear chats: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chats (user_id, chat_id, title, date_label, updated_at, status, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chats {
		if _, err := stmt.Exec(userID, ch.ID, ch.Title, ch.Date, ch.UpdatedAt.Unix(), ch.Status, i); err != nil {
			return fmt.Errorf("failed to insert chat %s: %w", ch.ID, err)
		}
	}

	return tx.Commit()
}

// GetChats returns the cached chat list for userID in its stored order.
// Returns ErrCacheMiss when nothing has been cached for this user.
func (c *HistoryCache) GetChats(userID string) ([]model.ChatSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}

	rows, err := c.db.Query(`
		SELECT chat_id, title, date_label, updated_at, status
		FROM chats WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []model.ChatSummary
	for rows.Next() {
		var ch model.ChatSummary
		var updatedAt int64
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Date, &updatedAt, &ch.Status); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		ch.UpdatedAt = time.Unix(updatedAt, 0)
		chats = append(chats, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if chats == nil {
		return nil, ErrCacheMiss
	}
	return chats, nil
}

// PutMessages replaces the cached messages of one chat, preserving order.
func (c *HistoryCache) PutMessages(chatID string, messages []model.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (chat_id, position, message_id, sender, text, sent_at, processing_time, context_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range messages {
		ctxJSON, err := json.Marshal(m.Context)
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
		_, err = stmt.Exec(chatID, i, m.ID, string(m.Sender), m.Text, m.Timestamp.Unix(), m.ProcessingTime, string(ctxJSON))
		if err != nil {
			return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// GetMessages returns the cached messages of one chat in stored order.
// Returns ErrCacheMiss when the chat has never been cached.
func (c *HistoryCache) GetMessages(chatID string) ([]model.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}

	rows, err := c.db.Query(`
		SELECT message_id, sender, text, sent_at, processing_time, context_json
		FROM messages WHERE chat_id = ? ORDER BY position`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var sender, ctxJSON string
		var sentAt int64
		if err := rows.Scan(&m.ID, &sender, &m.Text, &sentAt, &m.ProcessingTime, &ctxJSON); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Sender = model.Sender(sender)
		m.Timestamp = time.Unix(sentAt, 0)
		if ctxJSON != "" && ctxJSON != "null" {
			if err := json.Unmarshal([]byte(ctxJSON), &m.Context); err != nil {
				return nil, fmt.Errorf("failed to unmarshal context: %w", err)
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if messages == nil {
		return nil, ErrCacheMiss
	}
	return messages, nil
}

// SearchChats returns the cached chats of userID whose title contains query,
// compared diacritic- and case-insensitively so "nghi dinh" matches
// "Nghị định". An empty query returns the full list.
func (c *HistoryCache) SearchChats(userID, query string) ([]model.ChatSummary, error) {
	chats, err := c.GetChats(userID)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return chats, nil
	}

	matched := make([]model.ChatSummary, 0, len(chats))
	for _, ch := range chats {
		if util.ContainsFoldVN(ch.Title, query) {
			matched = append(matched, ch)
		}
	}
	return matched, nil
}

// DeleteChat removes one chat and its messages from the cache.
func (c *HistoryCache) DeleteChat(userID, chatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chats WHERE user_id = ? AND chat_id = ?`, userID, chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return tx.Commit()
}

// Clear removes everything cached for userID. Called on logout.
func (c *HistoryCache) Clear(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM messages WHERE chat_id IN
		(SELECT chat_id FROM chats WHERE user_id = ?)`, userID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chats WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete chats: %w", err)
	}
	return tx.Commit()
}
