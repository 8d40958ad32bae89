package service

import (
	"context"
	"errors"

	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/storage"
)

// DefaultTokenKey is the storage key holding the token.
const DefaultTokenKey = "token"

// TokenMirror persists the session token under a single key.
// It implements state.Mirror.
type TokenMirror struct {
	kv  storage.KV
	key string
}

// NewTokenMirror creates a mirror writing to key in kv.
func NewTokenMirror(kv storage.KV, key string) *TokenMirror {
	if key == "" {
		key = DefaultTokenKey
	}
	return &TokenMirror{kv: kv, key: key}
}

// MirrorToken stores token, or removes the key when token is empty.
func (m *TokenMirror) MirrorToken(ctx context.Context, token string) error {
	var err error
	if token == "" {
		err = m.kv.Remove(ctx, m.key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			err = nil
		}
	} else {
		err = m.kv.Set(ctx, m.key, token)
	}
	if err != nil {
		return domain.ErrStorage.WithDetails("mirror token").WithCause(err)
	}
	return nil
}

// Load returns the durable token, empty if none is stored.
func (m *TokenMirror) Load(ctx context.Context) (string, error) {
	token, err := m.kv.Get(ctx, m.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", domain.ErrStorage.WithDetails("load token").WithCause(err)
	}
	return token, nil
}
