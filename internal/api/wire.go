// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest is the body for POST /users/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session issued by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	UserID      string `json:"user_id"`
}

// RegisterRequest is the body for POST /users/register.
type RegisterRequest struct {
	FullName    string `json:"fullName"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// RegisterResponse is the server acknowledgement of a registration.
type RegisterResponse struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ChangePasswordRequest is the body for PUT /users/{id}/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// =============================================================================
// USERS
// =============================================================================

// UserInfo is the user record as the server returns it.
type UserInfo struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	Role         string `json:"role,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PersonalInfo string `json:"personal_info,omitempty"`
}

// UpdateUserRequest carries profile fields to change. Empty fields are
// omitted so the server keeps their current values.
type UpdateUserRequest struct {
	FullName     string `json:"fullName,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PersonalInfo string `json:"personal_info,omitempty"`
}

// =============================================================================
// ASK
// =============================================================================

// ClientInfo identifies the asking client to the server.
type ClientInfo struct {
	Platform   string `json:"platform"`
	DeviceType string `json:"deviceType"`
}

// AskRequest is the body for POST /ask.
type AskRequest struct {
	Query      string     `json:"query"`
	UserID     string     `json:"user_id"`
	SessionID  string     `json:"session_id,omitempty"`
	ClientInfo ClientInfo `json:"client_info"`
}

// Chunk is one retrieved document fragment that grounded an answer.
type Chunk struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"doc_title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// AskResponse is the answer payload from POST /ask. ID is the message id
// assigned by the server, used to key the follow-up title update.
type AskResponse struct {
	Answer    string  `json:"answer"`
	TotalTime float64 `json:"total_time"`
	TopChunks []Chunk `json:"top_chunks,omitempty"`
	ID        string  `json:"id,omitempty"`
}

// =============================================================================
// CHATS
// =============================================================================

// CreateChatRequest is the body for POST /chats/create.
type CreateChatRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// ChatInfo is one chat session record from the server.
type ChatInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// messagesResponse is the body of GET /chats/{id}/messages: the chat
// record with its stored messages inside.
type messagesResponse struct {
	Messages []RawMessage `json:"messages"`
}

// RawMessage is one stored message inside a messagesResponse.
type RawMessage struct {
	ID             string  `json:"id,omitempty"`
	Sender         string  `json:"sender"`
	Text           string  `json:"text"`
	Timestamp      string  `json:"timestamp,omitempty"`
	ProcessingTime float64 `json:"processingTime,omitempty"`
	Context        []Chunk `json:"context,omitempty"`
}

// UpdateTitleRequest is the body for PUT /chats/{id}/title.
type UpdateTitleRequest struct {
	Title  string `json:"title"`
	UserID string `json:"user_id,omitempty"`
}

// DeleteChatRequest is the body for DELETE /chats/{id}.
type DeleteChatRequest struct {
	UserID string `json:"user_id"`
}

// DeleteBatchRequest is the body for POST /chats/delete-batch.
type DeleteBatchRequest struct {
	ChatIDs []string `json:"chat_ids"`
	UserID  string   `json:"user_id"`
}

// errorResponse is the server's error body shape.
type errorResponse struct {
	Detail string `json:"detail"`
}
