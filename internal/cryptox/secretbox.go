// Package cryptox implements the symmetric encryption used to protect
// third-party API tokens at rest. One process-wide key encrypts everything;
// there is no rotation or versioning, so losing the key makes every stored
// ciphertext unrecoverable.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/atlassist/internal/logging"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

const nonceSize = 12

// SecretBox encrypts and decrypts opaque secret strings with AES-256-GCM.
// The key is read-only after construction and safe for concurrent use.
type SecretBox struct {
	aead   cipher.AEAD
	logger logging.Logger
}

// NewSecretBox builds a SecretBox from raw key material.
func NewSecretBox(key []byte, logger logging.Logger) (*SecretBox, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size %d, want %d", len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	return &SecretBox{aead: aead, logger: logger.With("component", "secretbox")}, nil
}

// Encrypt seals plaintext and returns base64url(nonce || ciphertext).
// An empty input produces an empty output. Errors (only possible if the
// CSPRNG fails) are logged and yield an empty string, matching Decrypt.
func (b *SecretBox) Encrypt(plaintext string) string {
	if plaintext == "" {
		return ""
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		b.logger.Error(context.Background(), "nonce generation failed", "error", err)
		return ""
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Decrypt reverses Encrypt. Corrupted or incompatible input is logged and
// returned as "" — callers must treat an empty result as "not available",
// never as a valid empty secret. It never returns an error.
func (b *SecretBox) Decrypt(encoded string) string {
	if encoded == "" {
		return ""
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		b.logger.Error(context.Background(), "ciphertext is not valid base64url", "error", err)
		return ""
	}

	if len(raw) <= nonceSize {
		b.logger.Error(context.Background(), "ciphertext too short", "len", len(raw))
		return ""
	}

	plaintext, err := b.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		b.logger.Error(context.Background(), "decrypt failed, key mismatch or corrupted data", "error", err)
		return ""
	}

	return string(plaintext)
}
