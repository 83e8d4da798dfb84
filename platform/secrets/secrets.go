// Package secrets seals short credentials (SMTP passwords, API keys) at rest
// with AES-256-GCM. Ciphertexts are hex encoded as nonce||sealed.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrKeyLength is returned for keys that are not 32 bytes.
var ErrKeyLength = errors.New("secrets: key must be 32 bytes")

// ParseKey accepts a 64 character hex key or a raw 32 byte string.
func ParseKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if len(value) == 64 {
		if key, err := hex.DecodeString(value); err == nil {
			return key, nil
		}
	}
	if len(value) != 32 {
		return nil, ErrKeyLength
	}
	return []byte(value), nil
}

// Seal encrypts plaintext and returns the hex encoded nonce and ciphertext.
func Seal(plaintext string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secrets: nonce: %w", err)
	}

	return hex.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

// Open reverses Seal.
func Open(sealed string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	raw, err := hex.DecodeString(strings.TrimSpace(sealed))
	if err != nil {
		return "", fmt.Errorf("secrets: hex decode: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("secrets: ciphertext too short")
	}

	nonce, body := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("secrets: open: %w", err)
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, ErrKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
