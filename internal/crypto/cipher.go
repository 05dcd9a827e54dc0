// Package crypto wraps at-rest encryption of task and routine text behind a
// small interface so the scheme can be swapped without touching the services.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Cipher encrypts text before persistence and reverses it after retrieval.
// The key is an owner-supplied string; implementations derive whatever key
// material they need from it.
type Cipher interface {
	Encrypt(plaintext, key string) (string, error)
	Decrypt(stored, key string) (string, error)
}

// Noop stores text as-is.
type Noop struct{}

func (Noop) Encrypt(plaintext, _ string) (string, error) { return plaintext, nil }
func (Noop) Decrypt(stored, _ string) (string, error)    { return stored, nil }

const ciphertextPrefix = "enc:v1:"

// AESCipher encrypts with AES-256-GCM, deriving the key from the caller's
// key string via PBKDF2. The surrounding system passes the owner's user ID
// as the key — a non-secret identifier, so this protects against casual
// inspection of the stored rows, not against the storage operator.
//
// Ciphertext carries the "enc:v1:" prefix; Decrypt returns unprefixed input
// unchanged so rows written before encryption was enabled keep working.
type AESCipher struct {
	salt []byte
}

func NewAES(salt string) *AESCipher {
	return &AESCipher{salt: []byte(salt)}
}

func (c *AESCipher) deriveKey(key string) []byte {
	return pbkdf2.Key([]byte(key), c.salt, 4096, 32, sha256.New)
}

func (c *AESCipher) Encrypt(plaintext, key string) (string, error) {
	if key == "" {
		return plaintext, nil
	}

	block, err := aes.NewCipher(c.deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return ciphertextPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESCipher) Decrypt(stored, key string) (string, error) {
	if !strings.HasPrefix(stored, ciphertextPrefix) {
		// legacy plaintext row
		return stored, nil
	}
	if key == "" {
		return "", fmt.Errorf("cannot decrypt without a key")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, ciphertextPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(c.deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}

var (
	_ Cipher = Noop{}
	_ Cipher = (*AESCipher)(nil)
)
