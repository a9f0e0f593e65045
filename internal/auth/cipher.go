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
)

// SubjectCipher encrypts the user id carried in the token "sub" claim so the
// raw id is never readable from a token. AES-256-GCM over a SHA-256 derived key;
// output is base64url([nonce][ciphertext][tag]).
type SubjectCipher struct {
	aead cipher.AEAD
}

// NewSubjectCipher derives the AES key from the configured secret.
func NewSubjectCipher(secret string) (*SubjectCipher, error) {
	if secret == "" {
		return nil, errors.New("subject cipher: empty secret")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("subject cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("subject cipher: %w", err)
	}
	return &SubjectCipher{aead: gcm}, nil
}

// NewEphemeralSubjectCipher uses a random secret. Tokens do not survive a restart.
func NewEphemeralSubjectCipher() (*SubjectCipher, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("subject cipher: %w", err)
	}
	return NewSubjectCipher(string(buf))
}

// Encrypt seals the plaintext with a fresh nonce.
func (c *SubjectCipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("subject cipher: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *SubjectCipher) Decrypt(encoded string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("subject cipher: decode: %w", err)
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("subject cipher: ciphertext too short")
	}
	plain, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("subject cipher: open: %w", err)
	}
	return string(plain), nil
}
