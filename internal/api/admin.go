// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// =============================================================================
// ADMIN SURFACE
// =============================================================================

// SystemStatus is the backend health report from GET /status.
type SystemStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
	CacheSize     int     `json:"cache_size,omitempty"`
}

// BenchmarkResult is one entry from GET /benchmark-results.
type BenchmarkResult struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Score     float64 `json:"score,omitempty"`
	TotalTime float64 `json:"total_time,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// DocumentInfo is one indexed document from GET /documents.
type DocumentInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Source     string `json:"source,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	UploadedAt string `json:"uploaded_at,omitempty"`
}

// UsageStatistics is the aggregate report from GET /statistics.
type UsageStatistics struct {
	TotalUsers     int `json:"total_users"`
	TotalChats     int `json:"total_chats"`
	TotalQuestions int `json:"total_questions"`
	ActiveToday    int `json:"active_today,omitempty"`
}

// AdminUser is one account row from the admin user listing.
type AdminUser struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// GetStatus fetches the backend health report.
func (c *Client) GetStatus(ctx context.Context) (*SystemStatus, error) {
	var resp SystemStatus
	if err := c.do(ctx, http.MethodGet, "/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearCache clears the backend answer cache.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/clear-cache", nil, nil)
}

// RunBenchmark starts a retrieval benchmark on the backend.
func (c *Client) RunBenchmark(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/run-benchmark", nil, nil)
}

// GetBenchmarkResults fetches past benchmark runs.
func (c *Client) GetBenchmarkResults(ctx context.Context) ([]BenchmarkResult, error) {
	var resp []BenchmarkResult
	if err := c.do(ctx, http.MethodGet, "/benchmark-results", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListDocuments fetches the indexed document list.
func (c *Client) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	var resp []DocumentInfo
	if err := c.do(ctx, http.MethodGet, "/documents", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteDocument removes one document from the index. The server requires
// the confirm flag before destroying data.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	path := "/documents/" + url.PathEscape(docID) + "?confirm=true"
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetStatistics fetches aggregate usage counters.
func (c *Client) GetStatistics(ctx context.Context) (*UsageStatistics, error) {
	var resp UsageStatistics
	if err := c.do(ctx, http.MethodGet, "/statistics", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUsers pages through registered accounts.
func (c *Client) ListUsers(ctx context.Context, limit, skip int) ([]AdminUser, error) {
	path := fmt.Sprintf("/users?limit=%d&skip=%d", limit, skip)
	var resp []AdminUser
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ResetUserPassword resets an account's password to a server-generated one.
func (c *Client) ResetUserPassword(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/reset-password", nil, nil)
}

// ToggleUserStatus enables or disables an account.
func (c *Client) ToggleUserStatus(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/toggle-status", nil, nil)
}
