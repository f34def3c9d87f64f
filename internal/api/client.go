// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the REST client for the congbot backend.
//
// Every request goes through a single do() path that applies rate limiting,
// attaches the bearer token from the credential store, and normalizes
// failures into *Error values with user-facing Vietnamese messages. A 401
// from any endpoint triggers the client's unauthorized hook exactly once
// per response, so the rest of the program never handles session expiry
// endpoint by endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/congbot/congbot-tui/internal/auth"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSec caps the request rate against the backend.
	DefaultRequestsPerSec = 5

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// Client is a client for the congbot backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      auth.Source
	limiter    *rate.Limiter

	// onUnauthorized runs once per 401 response, before the error is
	// returned to the caller. Used to clear stored credentials and drop
	// the UI back to the login screen.
	onUnauthorized func()
}

// NewClient creates a client for the given base URL. Credentials are read
// from creds on every request, so a login that happens after the client is
// built is picked up without rebuilding it.
func NewClient(baseURL string, creds auth.Source) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		creds:      creds,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSec), DefaultRequestsPerSec),
	}
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithRateLimit sets the sustained request rate. Zero or negative disables
// limiting.
func (c *Client) WithRateLimit(requestsPerSec float64) *Client {
	if requestsPerSec <= 0 {
		c.limiter = nil
		return c
	}
	burst := int(requestsPerSec)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(requestsPerSec), burst)
	return c
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// OnUnauthorized registers the hook run whenever the server answers 401.
func (c *Client) OnUnauthorized(fn func()) *Client {
	c.onUnauthorized = fn
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST PATH
// =============================================================================

// do performs one request and decodes the JSON response into out (when out
// is non-nil). All error responses come back as *Error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Detail: MsgNetworkError}
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if d := c.creds.Get(); d.IsValid {
		req.Header.Set("Authorization", "Bearer "+d.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Detail: MsgNetworkError}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return &Error{Detail: MsgNetworkError}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &Error{Detail: MsgSessionExpired, Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Detail: errorDetail(raw), Status: resp.StatusCode}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// errorDetail pulls the server's detail message out of an error body,
// falling back to the generic localized message.
func errorDetail(raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Detail != "" {
		return er.Detail
	}
	return MsgGenericError
}

// userID returns the stored user id, or ErrNotAuthenticated.
func (c *Client) userID() (string, error) {
	d := c.creds.Get()
	if !d.IsValid {
		return "", ErrNotAuthenticated
	}
	return d.UserID, nil
}

// =============================================================================
// AUTH & USERS
// =============================================================================

// Login authenticates with a username and password and returns the session
// issued by the server. The caller decides which scope to store it in.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/users/login", LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/users/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser fetches the profile for the given user id.
func (c *Client) GetUser(ctx context.Context, userID string) (*UserInfo, error) {
	var resp UserInfo
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateUser changes profile fields for the given user id.
func (c *Client) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*UserInfo, error) {
	var resp UserInfo
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChangePassword changes the current user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	id, err := c.userID()
	if err != nil {
		return err
	}
	body := ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id)+"/change-password", body, nil)
}

// =============================================================================
// ASK
// =============================================================================

// Ask submits a question for the given chat session and returns the answer
// with its retrieval context.
func (c *Client) Ask(ctx context.Context, query, sessionID string) (*AskResponse, error) {
	id, err := c.userID()
	if err != nil {
		return nil, err
	}

	req := AskRequest{
		Query:     query,
		UserID:    id,
		SessionID: sessionID,
		ClientInfo: ClientInfo{
			Platform:   "terminal",
			DeviceType: "desktop",
		},
	}

	var resp AskResponse
	if err := c.do(ctx, http.MethodPost, "/ask", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// CHATS
// =============================================================================

// CreateChat creates a chat session for userID with the given title.
func (c *Client) CreateChat(ctx context.Context, userID, title, status string) (*ChatInfo, error) {
	req := CreateChatRequest{UserID: userID, Title: title, Status: status}
	var resp ChatInfo
	if err := c.do(ctx, http.MethodPost, "/chats/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListChats returns all chat sessions belonging to userID.
func (c *Client) ListChats(ctx context.Context, userID string) ([]ChatInfo, error) {
	var resp []ChatInfo
	if err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetMessages returns the stored messages of one chat session. The server
// answers with the chat record; the messages live under its "messages" key.
func (c *Client) GetMessages(ctx context.Context, chatID string) ([]RawMessage, error) {
	var resp messagesResponse
	if err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// UpdateTitle renames a chat session.
func (c *Client) UpdateTitle(ctx context.Context, chatID, title string) error {
	d := c.creds.Get()
	body := UpdateTitleRequest{Title: title, UserID: d.UserID}
	return c.do(ctx, http.MethodPut, "/chats/"+url.PathEscape(chatID)+"/title", body, nil)
}

// DeleteChat deletes one chat session.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	id, err := c.userID()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/chats/"+url.PathEscape(chatID), DeleteChatRequest{UserID: id}, nil)
}

// DeleteChatBatch deletes several chat sessions in one call.
func (c *Client) DeleteChatBatch(ctx context.Context, chatIDs []string) error {
	id, err := c.userID()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/chats/delete-batch", DeleteBatchRequest{ChatIDs: chatIDs, UserID: id}, nil)
}
