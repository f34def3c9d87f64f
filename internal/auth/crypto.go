// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth stores the session token and user identifier for the congbot
// client.
//
// SECURITY: Tokens at rest are protected with AES-256-GCM under a key derived
// from a machine-local master key. This is obfuscation against casual file
// reads, not protection from an attacker with access to the same account:
// the master key sits next to the credentials file with 0600 permissions.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/congbot/congbot-tui/internal/util"
)

// EncryptedPrefix marks a sealed value (format: ENC:base64(salt|nonce|ciphertext)).
const EncryptedPrefix = "ENC:"

const (
	masterKeySize = 32
	saltSize      = 16
	// The master key is random, not a password; a short PBKDF2 run is only
	// there to bind the per-value salt into the AES key.
	kdfIterations = 4096
)

var (
	// ErrInvalidCiphertext indicates the sealed token format is invalid.
	ErrInvalidCiphertext = errors.New("invalid sealed token format")
	// ErrDecryptionFailed indicates the token could not be decrypted
	// (wrong key or tampered file).
	ErrDecryptionFailed = errors.New("token decryption failed")
)

// loadOrCreateMasterKey reads the machine-local master key, generating one on
// first use. The key file is written atomically with owner-only permissions.
func loadOrCreateMasterKey(path string) ([]byte, error) {
	if key, err := os.ReadFile(path); err == nil && len(key) == masterKeySize {
		return key, nil
	}

	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	if err := util.AtomicWriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to store master key: %w", err)
	}

	return key, nil
}

// sealToken encrypts a token for storage in the credentials file.
func sealToken(masterKey []byte, token string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := newAEAD(masterKey, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(token), nil)

	packed := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	packed = append(packed, salt...)
	packed = append(packed, nonce...)
	packed = append(packed, sealed...)

	return EncryptedPrefix + base64.StdEncoding.EncodeToString(packed), nil
}

// openToken decrypts a sealed token. A value without the ENC: prefix is
// returned as-is, so plaintext credential files from older builds still load.
func openToken(masterKey []byte, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, EncryptedPrefix) {
		return sealed, nil
	}

	packed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, EncryptedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(packed) < saltSize+12 {
		return "", ErrInvalidCiphertext
	}

	salt := packed[:saltSize]

	aead, err := newAEAD(masterKey, salt)
	if err != nil {
		return "", err
	}

	if len(packed) < saltSize+aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce := packed[saltSize : saltSize+aead.NonceSize()]
	ciphertext := packed[saltSize+aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plain), nil
}

// newAEAD derives a per-value AES-256-GCM cipher from the master key and salt.
func newAEAD(masterKey, salt []byte) (cipher.AEAD, error) {
	derived := pbkdf2.Key(masterKey, salt, kdfIterations, 32, sha256.New)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return cipher.NewGCM(block)
}
