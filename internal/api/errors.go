// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// User-facing error messages. The UI shows these verbatim, so they are
// written in Vietnamese like the rest of the client surface.
const (
	// MsgNetworkError is shown when the request never reached the server.
	MsgNetworkError = "Lỗi kết nối mạng. Vui lòng kiểm tra kết nối internet."

	// MsgSessionExpired is shown when the server rejects the session token.
	MsgSessionExpired = "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại."

	// MsgGenericError is the fallback when the server gave no detail.
	MsgGenericError = "Có lỗi xảy ra. Vui lòng thử lại."
)

// Error variables for common API failures.
var (
	// ErrUnauthorized indicates the server rejected the session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAuthenticated indicates a call that requires credentials was
	// made without any stored session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Error is the normalized API error handed to callers. Detail carries the
// display message (server detail when present, localized fallback otherwise)
// and Status the HTTP status code, or 0 for transport-level failures.
type Error struct {
	Detail string
	Status int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api error: %s", e.Detail)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Detail)
}

// Is lets errors.Is match unauthorized responses against ErrUnauthorized.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == 401
}

// IsUnauthorized reports whether err is a 401 API error.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 401
}

// ErrorDetail extracts the display message from an API error, falling back
// to the generic message for anything else.
func ErrorDetail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return MsgGenericError
}
