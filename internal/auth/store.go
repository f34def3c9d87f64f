// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth stores the session token and user identifier for the congbot
// client.
//
// Two scopes mirror the web client's storage split: a persistent scope (a
// credentials file under the config directory, used when the user chose
// "remember me") and a session scope (in-memory, process lifetime). Every
// other component reads credentials through the Source interface and treats
// absence as a zero value, never as an error.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/congbot/congbot-tui/internal/util"
)

// =============================================================================
// AUTH DATA
// =============================================================================

// Data is one credential snapshot.
type Data struct {
	Token  string
	UserID string
	// IsValid is true only when both token and user id are present.
	IsValid bool
}

// Source provides the current credentials at call time. The session store
// and the API client resolve credentials through this interface rather than
// caching them, so an external Clear is observed on the next call.
type Source interface {
	Get() Data
}

// =============================================================================
// CREDENTIALS FILE
// =============================================================================

// credentialsFile is the persisted credential record. The token is stored
// obfuscated (see crypto.go); the user id is not a secret.
type credentialsFile struct {
	Token  string `json:"auth_token"`
	UserID string `json:"user_id"`
}

const (
	credentialsName = "credentials.json"
	masterKeyName   = "credentials.key"
)

// =============================================================================
// STORE
// =============================================================================

// Store is the two-scope credential store.
type Store struct {
	mu  sync.Mutex
	dir string

	// session scope (process lifetime)
	sessionToken  string
	sessionUserID string
}

// NewStore creates a credential store rooted at dir. The directory is created
// on first save, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultStore creates a credential store under ~/.congbot.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(home, ".congbot")), nil
}

// FilePath returns the persistent credentials file path.
func (s *Store) FilePath() string {
	return filepath.Join(s.dir, credentialsName)
}

// keyPath returns the master key file path.
func (s *Store) keyPath() string {
	return filepath.Join(s.dir, masterKeyName)
}

// =============================================================================
// SAVE
// =============================================================================

// Save records credentials after a successful login. Exactly one scope
// holds them afterwards: remember=true writes the persistent file and
// empties the session scope, remember=false keeps them in memory only,
// like the localStorage/sessionStorage split in the web client.
func (s *Store) Save(token, userID string, remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !remember {
		s.sessionToken = token
		s.sessionUserID = userID
		return nil
	}

	s.sessionToken = ""
	s.sessionUserID = ""

	key, err := loadOrCreateMasterKey(s.keyPath())
	if err != nil {
		return err
	}

	sealed, err := sealToken(key, token)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(credentialsFile{Token: sealed, UserID: userID}, "", "  ")
	if err != nil {
		return err
	}

	return util.AtomicWriteFile(s.FilePath(), data, 0600)
}

// =============================================================================
// GET
// =============================================================================

// Get returns the current credentials. The persistent scope is read first,
// then the session scope; callers should check IsValid rather than assume
// one scope wins. Absence is zero values, never an error.
func (s *Store) Get() Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.readPersistent(); ok {
		return d
	}

	d := Data{Token: s.sessionToken, UserID: s.sessionUserID}
	d.IsValid = d.Token != "" && d.UserID != ""
	return d
}

// readPersistent loads the credentials file. A missing, corrupted or
// undecryptable file reads as absent.
func (s *Store) readPersistent() (Data, bool) {
	raw, err := os.ReadFile(s.FilePath())
	if err != nil {
		return Data{}, false
	}

	var f credentialsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return Data{}, false
	}

	key, err := os.ReadFile(s.keyPath())
	if err != nil {
		return Data{}, false
	}

	token, err := openToken(key, f.Token)
	if err != nil {
		return Data{}, false
	}

	d := Data{Token: token, UserID: f.UserID}
	d.IsValid = d.Token != "" && d.UserID != ""
	return d, d.IsValid
}

// =============================================================================
// CLEAR
// =============================================================================

// Clear removes the credentials from both scopes unconditionally. It is
// idempotent: clearing an empty store is not an error.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionToken = ""
	s.sessionUserID = ""

	os.Remove(s.FilePath())
	os.Remove(s.keyPath())
}
