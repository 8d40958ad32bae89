package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrSealedValue is returned when a stored value cannot be opened with the
// configured key (wrong key or tampered data).
var ErrSealedValue = errors.New("sealed value cannot be opened")

// SealedKV encrypts values with ChaCha20-Poly1305 before handing them to
// the wrapped store. The key name is bound as additional data so a value
// cannot be moved between keys.
//
// Stored format: base64(nonce || ciphertext || tag).
type SealedKV struct {
	inner KV
	aead  cipher.AEAD
}

// NewSealedKV wraps inner. Key must be exactly 32 bytes.
func NewSealedKV(inner KV, key []byte) (*SealedKV, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &SealedKV{inner: inner, aead: aead}, nil
}

// Get opens the stored value.
func (s *SealedKV) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	data, err := base64.RawStdEncoding.DecodeString(raw)
	if err != nil || len(data) < s.aead.NonceSize() {
		return "", ErrSealedValue
	}

	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", ErrSealedValue
	}
	return string(plain), nil
}

// Set seals value and stores it.
func (s *SealedKV) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

// Remove deletes key.
func (s *SealedKV) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

// Close closes the wrapped store.
func (s *SealedKV) Close() error {
	return s.inner.Close()
}
