// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congbot/congbot-tui/internal/auth"
)

// fakeSource is an in-memory auth.Source for tests.
type fakeSource struct {
	data auth.Data
}

func (f *fakeSource) Get() auth.Data { return f.data }

func validSource() *fakeSource {
	return &fakeSource{data: auth.Data{Token: "tok-1", UserID: "user-1", IsValid: true}}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, creds auth.Source) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, creds).WithRateLimit(0)
}

func TestClient_Login(t *testing.T) {
	var gotBody LoginRequest
	var gotAuth string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/login", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok-9", UserID: "user-9"})
	}, &fakeSource{})

	resp, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-9", resp.AccessToken)
	assert.Equal(t, "user-9", resp.UserID)
	assert.Equal(t, LoginRequest{Username: "alice", Password: "secret1"}, gotBody)
	assert.Empty(t, gotAuth, "login must not send a bearer token")
}

func TestClient_LoginSendsUsernameKey(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok-9", UserID: "user-9"})
	}, &fakeSource{})

	_, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", gotBody["username"])
	assert.NotContains(t, gotBody, "email")
}

func TestClient_ChangePasswordUsesPut(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}, validSource())

	require.NoError(t, c.ChangePassword(context.Background(), "old-pass", "new-pass"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/users/user-1/change-password", gotPath)
}

func TestClient_BearerTokenAttached(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(UserInfo{ID: "user-1", FullName: "Nguyễn Văn A"})
	}, validSource())

	u, err := c.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "Nguyễn Văn A", u.FullName)
}

func TestClient_UnauthorizedRunsHookOnce(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, validSource())

	calls := 0
	c.OnUnauthorized(func() { calls++ })

	_, err := c.GetUser(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, calls)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, MsgSessionExpired, apiErr.Detail)
}

func TestClient_ServerDetailPropagated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Detail: "Email đã được sử dụng"})
	}, &fakeSource{})

	_, err := c.Register(context.Background(), RegisterRequest{Email: "a@b.vn"})
	require.Error(t, err)
	assert.Equal(t, "Email đã được sử dụng", ErrorDetail(err))
}

func TestClient_GenericDetailForEmptyErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, validSource())

	_, err := c.ListChats(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, MsgGenericError, ErrorDetail(err))
}

func TestClient_NetworkErrorNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := NewClient(srv.URL, &fakeSource{}).WithRateLimit(0)
	srv.Close()

	_, err := c.GetStatus(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, MsgNetworkError, apiErr.Detail)
}

func TestClient_Ask(t *testing.T) {
	var gotBody AskRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ask", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(AskResponse{
			Answer:    "Chào bạn",
			TotalTime: 0.42,
			ID:        "msg-1",
			TopChunks: []Chunk{{DocID: "d1", Title: "Nghị định 100", Content: "...", Score: 0.9}},
		})
	}, validSource())

	resp, err := c.Ask(context.Background(), "Xin chào", "chat-1")
	require.NoError(t, err)

	assert.Equal(t, "Xin chào", gotBody.Query)
	assert.Equal(t, "user-1", gotBody.UserID)
	assert.Equal(t, "chat-1", gotBody.SessionID)
	assert.Equal(t, ClientInfo{Platform: "terminal", DeviceType: "desktop"}, gotBody.ClientInfo)

	assert.Equal(t, "Chào bạn", resp.Answer)
	assert.InDelta(t, 0.42, resp.TotalTime, 1e-9)
	assert.Equal(t, "msg-1", resp.ID)
	require.Len(t, resp.TopChunks, 1)
	assert.Equal(t, "Nghị định 100", resp.TopChunks[0].Title)
}

func TestClient_Ask_RequiresCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without credentials")
	}, &fakeSource{})

	_, err := c.Ask(context.Background(), "Xin chào", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_ChatLifecycle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /chats/create":
			var req CreateChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "active", req.Status)
			json.NewEncoder(w).Encode(ChatInfo{ID: "chat-1", Title: req.Title, Status: req.Status})
		case "GET /chats/user-1":
			json.NewEncoder(w).Encode([]ChatInfo{{ID: "chat-1", Title: "Cuộc trò chuyện mới"}})
		case "GET /chats/chat-1/messages":
			// The backend returns the chat record, not a bare array
			json.NewEncoder(w).Encode(map[string]any{
				"id": "chat-1",
				"messages": []RawMessage{
					{Sender: "user", Text: "Xin chào"},
					{Sender: "bot", Text: "Chào bạn", ProcessingTime: 0.42},
				},
			})
		case "PUT /chats/chat-1/title":
			w.WriteHeader(http.StatusOK)
		case "DELETE /chats/chat-1":
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}, validSource())

	ctx := context.Background()

	info, err := c.CreateChat(ctx, "user-1", "Cuộc trò chuyện mới", "active")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", info.ID)

	chats, err := c.ListChats(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, chats, 1)

	msgs, err := c.GetMessages(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "bot", msgs[1].Sender)
	assert.InDelta(t, 0.42, msgs[1].ProcessingTime, 1e-9)

	require.NoError(t, c.UpdateTitle(ctx, "chat-1", "Phạt nồng độ cồn"))
	require.NoError(t, c.DeleteChat(ctx, "chat-1"))
}

func TestClient_DeleteChatBatch(t *testing.T) {
	var gotBody DeleteBatchRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST /chats/delete-batch", r.Method+" "+r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}, validSource())

	require.NoError(t, c.DeleteChatBatch(context.Background(), []string{"c1", "c2"}))
	assert.Equal(t, []string{"c1", "c2"}, gotBody.ChatIDs)
	assert.Equal(t, "user-1", gotBody.UserID)
}

func TestClient_AdminEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			json.NewEncoder(w).Encode(SystemStatus{Status: "ok", Version: "1.2.0"})
		case "/statistics":
			json.NewEncoder(w).Encode(UsageStatistics{TotalUsers: 12, TotalChats: 34})
		case "/documents/d1":
			assert.Equal(t, "true", r.URL.Query().Get("confirm"))
			w.WriteHeader(http.StatusOK)
		case "/users":
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Equal(t, "20", r.URL.Query().Get("skip"))
			json.NewEncoder(w).Encode([]AdminUser{{ID: "u1", Active: true}})
		default:
			t.Fatalf("unexpected request: %s", r.URL.Path)
		}
	}, validSource())

	ctx := context.Background()

	st, err := c.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", st.Status)

	stats, err := c.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalUsers)

	require.NoError(t, c.DeleteDocument(ctx, "d1"))

	users, err := c.ListUsers(ctx, 10, 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
}
