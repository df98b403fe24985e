// Package session persists the backend bearer token and the signed-in user
// id through an injected kv.Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tracepay/internal/kv"
)

const (
	TokenKey  = "@tracepay_backend_token"
	UserIDKey = "@tracepay_user_id"
)

// Store is the session handle. The zero value is not usable; use New.
type Store struct {
	kv kv.Store
}

// New returns a session store backed by s.
func New(s kv.Store) *Store {
	return &Store{kv: s}
}

// Token returns the stored bearer token. ok is false when none is stored.
func (s *Store) Token(ctx context.Context) (token string, ok bool, err error) {
	return s.get(ctx, TokenKey)
}

// SetToken stores token. A blank token clears the stored one.
func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, TokenKey, token)
}

// ClearToken removes the stored token.
func (s *Store) ClearToken(ctx context.Context) error {
	return s.remove(ctx, TokenKey)
}

// UserID returns the stored user id. ok is false when none is stored.
func (s *Store) UserID(ctx context.Context) (id string, ok bool, err error) {
	return s.get(ctx, UserIDKey)
}

// SetUserID stores id. A blank id clears the stored one.
func (s *Store) SetUserID(ctx context.Context, id string) error {
	return s.set(ctx, UserIDKey, id)
}

// ClearUserID removes the stored user id.
func (s *Store) ClearUserID(ctx context.Context) error {
	return s.remove(ctx, UserIDKey)
}

// Clear signs out by removing both token and user id. Both removals are
// attempted even if the first fails.
func (s *Store) Clear(ctx context.Context) error {
	return errors.Join(s.ClearToken(ctx), s.ClearUserID(ctx))
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.remove(ctx, key)
	}
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := s.kv.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
