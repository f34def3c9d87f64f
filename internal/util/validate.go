// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the congbot terminal client.
package util

import "regexp"

// Form validation for the auth pages. Each validator returns a vi-VN error
// message, or the empty string when the value is acceptable. Validation
// failures are surfaced synchronously, before any network round-trip.

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks an email address.
func ValidateEmail(email string) string {
	if email == "" {
		return "Vui lòng nhập email"
	}
	if !emailPattern.MatchString(email) {
		return "Email không hợp lệ"
	}
	return ""
}

// ValidatePassword checks a password.
func ValidatePassword(password string) string {
	if password == "" {
		return "Vui lòng nhập mật khẩu"
	}
	if len([]rune(password)) < 6 {
		return "Mật khẩu phải có ít nhất 6 ký tự"
	}
	return ""
}

// ValidateUsername checks a login name.
func ValidateUsername(username string) string {
	if username == "" {
		return "Vui lòng nhập tên đăng nhập"
	}
	if len([]rune(username)) < 3 {
		return "Tên đăng nhập phải có ít nhất 3 ký tự"
	}
	return ""
}

// ValidateFullName checks a display name.
func ValidateFullName(fullName string) string {
	if fullName == "" {
		return "Vui lòng nhập họ và tên"
	}
	return ""
}

// ValidatePhoneNumber checks a phone number.
func ValidatePhoneNumber(phoneNumber string) string {
	if phoneNumber == "" {
		return "Vui lòng nhập số điện thoại"
	}
	return ""
}

// ValidateConfirmPassword checks that the confirmation matches.
func ValidateConfirmPassword(password, confirmPassword string) string {
	if confirmPassword == "" {
		return "Vui lòng xác nhận mật khẩu"
	}
	if password != confirmPassword {
		return "Mật khẩu không khớp"
	}
	return ""
}
