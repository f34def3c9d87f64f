// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the client-side chat session state.
//
// The Store owns the current user profile, the chat history list, the
// active chat's messages, and the loading and error flags the views render
// from. Views never talk to the backend directly: every state change goes
// through a Store operation, and every operation leaves the Store in a
// consistent state whether the backend answered or not.
//
// Error propagation is deliberately asymmetric. History and profile
// fetches degrade: they retry, then record an error message and return
// empty results so the UI keeps working. Chat creation and chat switching
// propagate their errors, because the user is actively waiting on those.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/congbot/congbot-tui/internal/api"
	"github.com/congbot/congbot-tui/internal/auth"
	"github.com/congbot/congbot-tui/internal/model"
	"github.com/congbot/congbot-tui/internal/storage"
	"github.com/congbot/congbot-tui/internal/util"
)

// Retry policy for backend calls made by the store.
const (
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3

	// DefaultRetryDelay is the base delay between attempts.
	DefaultRetryDelay = 1000 * time.Millisecond

	// titleMaxLen is how much of the first question becomes the chat title.
	titleMaxLen = 30
)

// User-facing messages recorded by store operations.
const (
	// MsgHistoryFailed is set when the chat list cannot be loaded.
	MsgHistoryFailed = "Không thể tải lịch sử trò chuyện"

	// MsgLoginRequired is returned when an operation needs a signed-in user.
	MsgLoginRequired = "Bạn cần đăng nhập để tạo cuộc trò chuyện"

	// MsgAskFailed is appended as the bot reply when a question fails.
	MsgAskFailed = "Xin lỗi, có lỗi xảy ra khi xử lý yêu cầu của bạn. Vui lòng thử lại sau."
)

// ErrLoginRequired indicates an operation was attempted without stored
// credentials.
var ErrLoginRequired = errors.New(MsgLoginRequired)

// ChatService is the backend surface the store needs for chat operations.
// *api.Client satisfies it; tests substitute fakes.
type ChatService interface {
	CreateChat(ctx context.Context, userID, title, status string) (*api.ChatInfo, error)
	ListChats(ctx context.Context, userID string) ([]api.ChatInfo, error)
	GetMessages(ctx context.Context, chatID string) ([]api.RawMessage, error)
	UpdateTitle(ctx context.Context, chatID, title string) error
	DeleteChat(ctx context.Context, chatID string) error
	DeleteChatBatch(ctx context.Context, chatIDs []string) error
	Ask(ctx context.Context, query, sessionID string) (*api.AskResponse, error)
}

// UserService is the backend surface for profile fetches.
type UserService interface {
	GetUser(ctx context.Context, userID string) (*api.UserInfo, error)
}

// Store is the chat session state container. One instance is created at
// startup and injected into every view; nothing in this package is a
// package-level singleton.
type Store struct {
	chats ChatService
	users UserService
	creds auth.Source
	cache *storage.HistoryCache // optional, nil disables caching

	retries    int
	retryDelay time.Duration

	// sleep and now are injectable so tests run without real delays.
	sleep func(time.Duration)
	now   func() time.Time

	mu            sync.Mutex
	user          *model.UserProfile
	history       []model.ChatSummary
	messages      []model.Message
	currentChatID string
	loading       bool
	errMsg        string

	// switchGen is bumped by every SwitchChat call. A call applies its
	// result only if no later call has been issued meanwhile, so the
	// last requested chat always wins regardless of response order.
	switchGen uint64

	// auth watcher lifecycle, see watcher.go
	watchStop chan struct{}
	watchDone chan struct{}
}

// NewStore creates a session store over the given backend services and
// credential source.
func NewStore(chats ChatService, users UserService, creds auth.Source) *Store {
	return &Store{
		chats:      chats,
		users:      users,
		creds:      creds,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// WithCache attaches the local history cache.
func (s *Store) WithCache(cache *storage.HistoryCache) *Store {
	s.cache = cache
	return s
}

// WithRetryPolicy overrides the retry count and base delay.
func (s *Store) WithRetryPolicy(retries int, delay time.Duration) *Store {
	s.retries = retries
	s.retryDelay = delay
	return s
}

// WithClock overrides the sleep and now functions. Used by tests.
func (s *Store) WithClock(sleep func(time.Duration), now func() time.Time) *Store {
	if sleep != nil {
		s.sleep = sleep
	}
	if now != nil {
		s.now = now
	}
	return s
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// User returns the cached profile, or nil when nobody is signed in.
func (s *Store) User() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// History returns a copy of the chat summary list, newest first.
func (s *Store) History() []model.ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatSummary, len(s.history))
	copy(out, s.history)
	return out
}

// Messages returns a copy of the active chat's messages in order.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// CurrentChatID returns the active chat id, or "" when none is active.
func (s *Store) CurrentChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentChatID
}

// Loading reports whether a store operation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// ErrMsg returns the last recorded error message, or "".
func (s *Store) ErrMsg() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError discards the recorded error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// =============================================================================
// PROFILE
// =============================================================================

// FetchUserInfo loads the profile for userID into the store. An empty id is
// a no-op. Failures are logged and swallowed: the store keeps working with
// no profile rather than surfacing an error the user cannot act on.
func (s *Store) FetchUserInfo(ctx context.Context, userID string) *model.UserProfile {
	if userID == "" {
		return nil
	}

	s.setLoading(true)
	defer s.setLoading(false)

	info, err := s.users.GetUser(ctx, userID)
	if err != nil {
		log.Printf("session: failed to fetch user %s: %v", userID, err)
		return nil
	}

	profile := profileFromInfo(info)

	s.mu.Lock()
	s.user = profile
	s.mu.Unlock()

	return profile
}

// profileFromInfo maps the backend user record onto the profile shape.
// Display name falls back from the full name to the username; accounts
// without an explicit role are regular users.
func profileFromInfo(info *api.UserInfo) *model.UserProfile {
	name := info.FullName
	if name == "" {
		name = info.Username
	}
	role := model.UserRole(info.Role)
	if role == "" {
		role = model.RoleUser
	}
	return &model.UserProfile{
		ID:           info.ID,
		Name:         name,
		Username:     info.Username,
		Email:        info.Email,
		PhoneNumber:  info.PhoneNumber,
		Role:         role,
		AvatarURL:    info.AvatarURL,
		PersonalInfo: info.PersonalInfo,
	}
}

// =============================================================================
// HISTORY
// =============================================================================

// FetchChatHistory loads the chat list for the stored user id and replaces
// the history. This path never returns an error: after the retries are
// exhausted it records MsgHistoryFailed, falls back to the local cache if
// one holds data, and otherwise returns an empty list.
func (s *Store) FetchChatHistory(ctx context.Context) []model.ChatSummary {
	d := s.creds.Get()
	if !d.IsValid {
		return []model.ChatSummary{}
	}

	s.setLoading(true)
	defer s.setLoading(false)

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.sleep(s.retryDelay)
		}

		infos, err := s.chats.ListChats(ctx, d.UserID)
		if err != nil {
			lastErr = err
			continue
		}

		history := make([]model.ChatSummary, 0, len(infos))
		for _, info := range infos {
			history = append(history, summaryFromInfo(info))
		}

		s.mu.Lock()
		s.history = history
		s.errMsg = ""
		s.mu.Unlock()

		if s.cache != nil {
			if err := s.cache.PutChats(d.UserID, history); err != nil {
				log.Printf("session: failed to cache history: %v", err)
			}
		}
		return history
	}

	log.Printf("session: history fetch failed after %d retries: %v", s.retries, lastErr)

	s.mu.Lock()
	s.errMsg = MsgHistoryFailed
	s.mu.Unlock()

	if s.cache != nil {
		if cached, err := s.cache.GetChats(d.UserID); err == nil {
			s.mu.Lock()
			s.history = cached
			s.mu.Unlock()
			return cached
		}
	}
	return []model.ChatSummary{}
}

// summaryFromInfo maps a backend chat record onto a ChatSummary. The date
// shown in the sidebar is the localized creation day; status is always
// "active", soft-deleted chats never reach the listing.
func summaryFromInfo(info api.ChatInfo) model.ChatSummary {
	createdAt := parseTimestamp(info.CreatedAt)
	updatedAt := parseTimestamp(info.UpdatedAt)
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	date := "N/A"
	if !createdAt.IsZero() {
		date = util.FormatDateVN(createdAt)
	}

	return model.ChatSummary{
		ID:        info.ID,
		Title:     info.Title,
		Date:      date,
		UpdatedAt: updatedAt,
		Status:    model.StatusActive,
	}
}

// parseTimestamp accepts the timestamp formats the backend emits.
func parseTimestamp(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// =============================================================================
// CHAT LIFECYCLE
// =============================================================================

// CreateNewChat creates a chat on the backend and makes it active with an
// empty message list. The user id is resolved from the credential store at
// call time, independent of the cached profile. Backend failures propagate
// to the caller.
func (s *Store) CreateNewChat(ctx context.Context, title string) (string, error) {
	d := s.creds.Get()
	if !d.IsValid || d.UserID == "" {
		return "", ErrLoginRequired
	}

	if title == "" {
		title = model.DefaultChatTitle
	}

	s.setLoading(true)
	defer s.setLoading(false)

	info, err := s.chats.CreateChat(ctx, d.UserID, title, model.StatusActive)
	if err != nil {
		return "", err
	}

	now := s.now()
	summary := model.ChatSummary{
		ID:        info.ID,
		Title:     title,
		Date:      util.FormatDateVN(now),
		UpdatedAt: now,
		Status:    model.StatusActive,
	}

	s.mu.Lock()
	// Newest first: the fresh chat goes to the top of the sidebar.
	s.history = append([]model.ChatSummary{summary}, s.history...)
	s.currentChatID = info.ID
	s.messages = []model.Message{}
	history := make([]model.ChatSummary, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.PutChats(d.UserID, history); err != nil {
			log.Printf("session: failed to cache history: %v", err)
		}
	}

	return info.ID, nil
}

// SwitchChat makes chatID the active chat and loads its messages. Unlike
// the history fetch this propagates failure after the retries run out: the
// user asked for this chat and has to see that it did not load.
//
// Overlapping calls are resolved last-requested-wins: a slow response for
// an earlier switch is discarded once a later switch has been issued.
func (s *Store) SwitchChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	s.switchGen++
	gen := s.switchGen
	s.mu.Unlock()

	s.setLoading(true)
	defer s.setLoading(false)

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.sleep(s.retryDelay)
		}

		raws, err := s.chats.GetMessages(ctx, chatID)
		if err != nil {
			lastErr = err
			continue
		}

		messages := make([]model.Message, 0, len(raws))
		for _, raw := range raws {
			messages = append(messages, messageFromRaw(raw, s.now()))
		}

		s.mu.Lock()
		if s.switchGen != gen {
			// A later switch superseded this one; drop the stale result.
			s.mu.Unlock()
			return nil
		}
		s.currentChatID = chatID
		s.messages = messages
		s.mu.Unlock()

		if s.cache != nil {
			if err := s.cache.PutMessages(chatID, messages); err != nil {
				log.Printf("session: failed to cache messages: %v", err)
			}
		}
		return nil
	}

	// Offline degradation: a previously cached transcript still opens.
	if s.cache != nil {
		if cached, err := s.cache.GetMessages(chatID); err == nil {
			s.mu.Lock()
			if s.switchGen == gen {
				s.currentChatID = chatID
				s.messages = cached
			}
			s.mu.Unlock()
			return nil
		}
	}

	return lastErr
}

// messageFromRaw maps a stored backend message onto the Message shape.
// Server-assigned ids are kept; messages without one get a fresh client id.
func messageFromRaw(raw api.RawMessage, now time.Time) model.Message {
	ts := parseTimestamp(raw.Timestamp)
	if ts.IsZero() {
		ts = now
	}

	var context []model.Snippet
	for _, ch := range raw.Context {
		context = append(context, model.Snippet{
			DocID:   ch.DocID,
			Title:   ch.Title,
			Content: ch.Content,
			Score:   ch.Score,
		})
	}

	var m model.Message
	if raw.Sender == string(model.SenderBot) {
		m = model.NewBotMessage(raw.Text, ts, raw.ProcessingTime, context)
	} else {
		m = model.NewUserMessage(raw.Text, ts)
	}
	if raw.ID != "" {
		m.ID = raw.ID
	}
	return m
}

// AddExchange appends one user message and its bot reply to the active
// list in a single update, keeping the strict user/bot alternation. No
// I/O happens here.
func (s *Store) AddExchange(userMsg, botMsg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, userMsg, botMsg)
}

// SearchHistory returns the chats whose display titles contain query,
// compared diacritic-insensitively so "nghi dinh" matches "Nghị định".
// The cache serves the search when attached; without one the in-memory
// list is filtered.
func (s *Store) SearchHistory(query string) []model.ChatSummary {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.History()
	}

	if s.cache != nil {
		d := s.creds.Get()
		if out, err := s.cache.SearchChats(d.UserID, query); err == nil {
			return out
		}
	}

	out := make([]model.ChatSummary, 0)
	for _, ch := range s.History() {
		if util.ContainsFoldVN(ch.DisplayTitle(), query) {
			out = append(out, ch)
		}
	}
	return out
}

// RenameChat renames a chat on the backend, in the history list, and in
// the cached copy of the list.
func (s *Store) RenameChat(ctx context.Context, chatID, title string) error {
	if err := s.chats.UpdateTitle(ctx, chatID, title); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.history {
		if s.history[i].ID == chatID {
			s.history[i].Title = title
			break
		}
	}
	history := make([]model.ChatSummary, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	if s.cache != nil {
		d := s.creds.Get()
		if err := s.cache.PutChats(d.UserID, history); err != nil {
			log.Printf("session: failed to cache history: %v", err)
		}
	}
	return nil
}

// DeleteChat removes a chat from the backend, the history list, and the
// cache. Deleting the active chat deactivates it.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	if err := s.chats.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	s.removeFromHistory(chatID)

	if s.cache != nil {
		d := s.creds.Get()
		if err := s.cache.DeleteChat(d.UserID, chatID); err != nil {
			log.Printf("session: failed to drop cached chat: %v", err)
		}
	}
	return nil
}

// DeleteChatBatch removes several chats at once.
func (s *Store) DeleteChatBatch(ctx context.Context, chatIDs []string) error {
	if len(chatIDs) == 0 {
		return nil
	}
	if err := s.chats.DeleteChatBatch(ctx, chatIDs); err != nil {
		return err
	}

	d := s.creds.Get()
	for _, id := range chatIDs {
		s.removeFromHistory(id)
		if s.cache != nil {
			if err := s.cache.DeleteChat(d.UserID, id); err != nil {
				log.Printf("session: failed to drop cached chat: %v", err)
			}
		}
	}
	return nil
}

func (s *Store) removeFromHistory(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.history[:0]
	for _, ch := range s.history {
		if ch.ID != chatID {
			kept = append(kept, ch)
		}
	}
	s.history = kept

	if s.currentChatID == chatID {
		s.currentChatID = ""
		s.messages = nil
	}
}

// =============================================================================
// ASK
// =============================================================================

// Ask sends query to the assistant in the active chat, creating a chat
// first when none is active. The user message is appended optimistically
// before the network call; the bot reply or a localized failure message is
// appended when the call settles, so the transcript always records the
// question.
//
// On the first exchange of a chat the opening words of the question become
// the chat title, keyed by the id the server echoes back.
func (s *Store) Ask(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	chatID := s.CurrentChatID()
	if chatID == "" {
		id, err := s.CreateNewChat(ctx, "")
		if err != nil {
			return err
		}
		chatID = id
	}

	s.mu.Lock()
	firstExchange := len(s.messages) == 0
	userMsg := model.NewUserMessage(query, s.now())
	s.messages = append(s.messages, userMsg)
	s.mu.Unlock()

	s.setLoading(true)
	defer s.setLoading(false)

	var resp *api.AskResponse
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			// Linear backoff: wait grows with each attempt.
			s.sleep(time.Duration(attempt) * s.retryDelay)
		}
		resp, err = s.chats.Ask(ctx, query, chatID)
		if err == nil {
			break
		}
	}
	if err != nil {
		log.Printf("session: ask failed after %d retries: %v", s.retries, err)
		s.mu.Lock()
		s.messages = append(s.messages, model.NewBotMessage(MsgAskFailed, s.now(), 0, nil))
		s.mu.Unlock()
		return err
	}

	var context []model.Snippet
	for _, ch := range resp.TopChunks {
		context = append(context, model.Snippet{
			DocID:   ch.DocID,
			Title:   ch.Title,
			Content: ch.Content,
			Score:   ch.Score,
		})
	}

	s.mu.Lock()
	s.messages = append(s.messages, model.NewBotMessage(resp.Answer, s.now(), resp.TotalTime, context))
	messages := make([]model.Message, len(s.messages))
	copy(messages, s.messages)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.PutMessages(chatID, messages); err != nil {
			log.Printf("session: failed to cache messages: %v", err)
		}
	}

	if firstExchange {
		s.applyFirstExchangeTitle(ctx, chatID, resp.ID, query)
	}
	return nil
}

// applyFirstExchangeTitle derives the chat title from the first question
// and pushes it to the backend. The server may echo back its own id for
// the chat; when it does, that id keys the rename. Failures are logged,
// a missing title never blocks the conversation.
func (s *Store) applyFirstExchangeTitle(ctx context.Context, chatID, responseID, query string) {
	title := firstExchangeTitle(query)

	renameID := chatID
	if responseID != "" {
		renameID = responseID
	}
	if err := s.chats.UpdateTitle(ctx, renameID, title); err != nil {
		log.Printf("session: failed to set chat title: %v", err)
		return
	}

	s.mu.Lock()
	for i := range s.history {
		if s.history[i].ID == chatID {
			s.history[i].Title = title
			break
		}
	}
	s.mu.Unlock()
}

// firstExchangeTitle cuts the question down to a sidebar-sized title.
func firstExchangeTitle(query string) string {
	runes := []rune(query)
	if len(runes) <= titleMaxLen {
		return query
	}
	return string(runes[:titleMaxLen]) + "..."
}

// =============================================================================
// RESET
// =============================================================================

// ResetAuthState drops everything tied to the signed-in user: profile,
// history, active messages, active chat, loading and error flags, and the
// user's cached history. Safe to call repeatedly; the second call finds
// nothing left to clear.
func (s *Store) ResetAuthState() {
	s.mu.Lock()
	user := s.user
	s.user = nil
	s.history = nil
	s.messages = nil
	s.currentChatID = ""
	s.loading = false
	s.errMsg = ""
	s.mu.Unlock()

	if s.cache != nil && user != nil {
		if err := s.cache.Clear(user.ID); err != nil {
			log.Printf("session: failed to clear cached history: %v", err)
		}
	}
}
