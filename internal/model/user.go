// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for users, chats and messages.
package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// UserRole is the backend-assigned role of an account.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// =============================================================================
// USER PROFILE TYPE
// =============================================================================

// UserProfile is the signed-in user as cached by the session store. It is
// created on login or fetched by id, replaced wholesale on each refresh, and
// cleared on logout or auth loss. No other component mutates it.
type UserProfile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"` // full name, falling back to username
	Email        string   `json:"email"`
	Username     string   `json:"username"`
	PhoneNumber  string   `json:"phoneNumber"`
	Role         UserRole `json:"role"`
	AvatarURL    string   `json:"avatarUrl"`
	PersonalInfo string   `json:"personalInfo"`
}

// IsAdmin returns true if the profile carries the admin role.
func (u *UserProfile) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
