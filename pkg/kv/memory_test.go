package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, m.Set(ctx, "k", "v"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	// Deleting an absent key is not an error.
	require.NoError(t, m.Delete(ctx, "k"))
}

func TestMemoryDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "auth.session", "a"))
	require.NoError(t, m.Set(ctx, "auth.legacy", "b"))
	require.NoError(t, m.Set(ctx, "notes", "c"))

	require.NoError(t, m.DeleteByPrefix(ctx, "auth."))

	assert.Equal(t, 1, m.Len())
	kept, err := m.Get(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "c", kept)
}
