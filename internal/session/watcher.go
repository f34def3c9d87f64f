// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"
)

// DefaultAuthCheckInterval is how often the store re-checks stored
// credentials while a user is signed in.
const DefaultAuthCheckInterval = 2 * time.Second

// StartAuthWatcher launches the periodic credential check. When the stored
// credentials disappear while a profile is still cached (cleared by a 401,
// by another process, or by hand), the store resets itself and onLost runs
// so the UI can drop back to the login screen.
//
// The watcher is owned by the store: StopAuthWatcher or a second Start
// tears the previous one down. onLost runs on the watcher goroutine.
func (s *Store) StartAuthWatcher(interval time.Duration, onLost func()) {
	if interval <= 0 {
		interval = DefaultAuthCheckInterval
	}

	s.StopAuthWatcher()

	stop := make(chan struct{})
	done := make(chan struct{})

	s.mu.Lock()
	s.watchStop = stop
	s.watchDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.CheckAuth(onLost)
			}
		}
	}()
}

// StopAuthWatcher stops the periodic check and waits for the watcher
// goroutine to exit. Calling it without a running watcher is a no-op.
func (s *Store) StopAuthWatcher() {
	s.mu.Lock()
	stop, done := s.watchStop, s.watchDone
	s.watchStop, s.watchDone = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// CheckAuth runs one credential check immediately: when the credentials
// vanished under a live session the store resets itself and onLost runs.
// The ticker calls it on every tick; the credentials file watcher calls it
// the moment the file changes, without waiting for the next tick.
func (s *Store) CheckAuth(onLost func()) {
	if s.creds.Get().IsValid {
		return
	}

	s.mu.Lock()
	hadUser := s.user != nil
	s.mu.Unlock()
	if !hadUser {
		return
	}

	s.ResetAuthState()
	if onLost != nil {
		onLost()
	}
}
