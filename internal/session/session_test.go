package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracepay/internal/kv"
)

type brokenStore struct{ *kv.Memory }

var errBroken = errors.New("storage unavailable")

func (brokenStore) Get(context.Context, string) (string, error) { return "", errBroken }
func (brokenStore) Remove(context.Context, string) error        { return errBroken }

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	_, ok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetToken(ctx, " abc.def "))
	tok, ok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	raw, err := mem.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", raw)

	require.NoError(t, s.SetToken(ctx, ""))
	_, ok, err = s.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearRemovesBoth(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())
	require.NoError(t, s.SetToken(ctx, "t"))
	require.NoError(t, s.SetUserID(ctx, "42"))

	id, ok, err := s.UserID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "42", id)

	require.NoError(t, s.Clear(ctx))
	_, ok, _ = s.Token(ctx)
	assert.False(t, ok)
	_, ok, _ = s.UserID(ctx)
	assert.False(t, ok)
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	s := New(brokenStore{kv.NewMemory()})

	_, _, err := s.Token(ctx)
	assert.ErrorIs(t, err, errBroken)

	err = s.Clear(ctx)
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), TokenKey)
	assert.Contains(t, err.Error(), UserIDKey)
}
