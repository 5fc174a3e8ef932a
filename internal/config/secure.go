package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Encrypted config values use AES-256-GCM and are stored as
// "ivhex:taghex:cipherhex" under a 32-byte hex key in CONFIG_ENCRYPTION_KEY.

const gcmTagSize = 16

func encryptionKey() ([]byte, error) {
	keyHex := os.Getenv("CONFIG_ENCRYPTION_KEY")
	if keyHex == "" {
		return nil, fmt.Errorf("encryption key not configured")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("CONFIG_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CONFIG_ENCRYPTION_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Encrypt seals plaintext for storage in the environment.
func Encrypt(plaintext string) (string, error) {
	key, err := encryptionKey()
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	// Seal appends the auth tag; split it out to keep the iv:tag:cipher layout.
	tag := sealed[len(sealed)-gcmTagSize:]
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a value produced by Encrypt.
func Decrypt(encrypted string) (string, error) {
	key, err := encryptionKey()
	if err != nil {
		return "", err
	}
	parts := strings.Split(encrypted, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed encrypted value")
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("malformed iv: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("malformed auth tag: %w", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plain), nil
}
