// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth stores the session token and user identifier for the congbot
// client.
package auth

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// FILE WATCHER
// =============================================================================

// FileWatcher observes the persistent credentials file and reports external
// changes (another process clearing or rewriting it) without waiting for the
// session store's poll tick. The polling watcher remains the contract-level
// mechanism; this is the fast path.
type FileWatcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewFileWatcher creates a watcher for the store's credentials file.
// onChange runs on the watcher goroutine for every write or removal.
func NewFileWatcher(store *Store, onChange func()) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: fsnotify loses removed files, and
	// Clear deletes the credentials file entirely.
	if err := watcher.Add(store.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		store:   store,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}

	go fw.run(onChange)
	return fw, nil
}

// run dispatches filesystem events until Close.
func (fw *FileWatcher) run(onChange func()) {
	target := filepath.Base(fw.store.FilePath())

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Create) {
				onChange()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("credentials watcher error: %v", err)
		}
	}
}

// Close stops watching and releases resources.
func (fw *FileWatcher) Close() error {
	fw.cancel()
	return fw.watcher.Close()
}
